/*
errors.go - Centralized error types for statement computation

PURPOSE:
  All payroll error types in one place. Collaborating packages wrap these
  with additional context; HTTP handlers map them to status codes.

ERROR CATEGORIES:
  1. Missing records - employee or statement not found
  2. Lifecycle violations - confirming a paid statement, etc.
  3. Data integrity - surfaced as statement warnings, not errors

  Missing tariff data is deliberately NOT an error anywhere: it resolves to
  documented defaults and zero tiers in the tariff package.

SEE ALSO:
  - engine.go: produces these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a statement is requested for an
	// employee the directory does not know.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrStatementNotFound is returned when a stored statement is requested
	// for a period that was never materialized.
	ErrStatementNotFound = errors.New("statement not found")

	// ErrStatementNotDraft is returned when confirming a statement that is
	// already confirmed or paid.
	ErrStatementNotDraft = errors.New("statement is not in draft status")

	// ErrStatementNotConfirmed is returned when marking paid a statement
	// that was never confirmed.
	ErrStatementNotConfirmed = errors.New("statement is not confirmed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ComputeError names the input that made a statement impossible to compute.
// The caller sees "cannot compute statement for this period" plus the
// specific missing or invalid piece, never a silent wrong number.
type ComputeError struct {
	OwnerID EmployeeID
	Year    int
	Month   time.Month
	Input   string // which fetch failed: "trips", "expenses", "treasury", "carry-over", "tariff"
	Err     error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("cannot compute statement for %s %04d-%02d: %s: %v",
		e.OwnerID, e.Year, int(e.Month), e.Input, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// IsClientError reports whether the error is the caller's fault rather
// than a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrStatementNotFound) ||
		errors.Is(err, ErrStatementNotDraft) ||
		errors.Is(err, ErrStatementNotConfirmed)
}
