/*
store.go - Read/write contracts toward the record store

PURPOSE:
  The engine has zero I/O of its own. Everything it reads (trips, claims,
  movements, prior statements) and the one thing it writes (statements)
  goes through these interfaces. store/sqlite implements all of them;
  store/memory implements them for tests.

READ-ONLY SOURCES:
  TripSource, ExpenseSource, TreasurySource expose records created by the
  upstream dispatch and expense workflows. Payroll filters them by owner,
  date window, and finalized/approved status, and never mutates them.

SEE ALSO:
  - engine.go: the only consumer of these interfaces
  - store/sqlite/sqlite.go, store/memory/memory.go: implementations
*/
package payroll

import (
	"context"
	"time"
)

// TripSource lists finalized trips for one driver in a date window.
type TripSource interface {
	// ListFinalizedTrips returns trips with a finalized status assigned to
	// owner with date in [from, to], ordered by date.
	ListFinalizedTrips(ctx context.Context, owner EmployeeID, from, to time.Time) ([]Trip, error)
}

// ExpenseSource lists approved expense claims for one driver in a window.
type ExpenseSource interface {
	ListApprovedClaims(ctx context.Context, owner EmployeeID, from, to time.Time) ([]ExpenseClaim, error)
}

// TreasurySource lists treasury movements for one driver in a window.
type TreasurySource interface {
	ListMovements(ctx context.Context, owner EmployeeID, from, to time.Time) ([]TreasuryMovement, error)
}

// EmployeeDirectory resolves driver records.
type EmployeeDirectory interface {
	// GetEmployee returns the employee or (nil, nil) when unknown.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// StatementStore persists materialized statements. Statements are derived
// data: saving the same period twice replaces the draft in place.
type StatementStore interface {
	// SaveStatement installs or replaces the statement for its
	// (owner, year, month).
	SaveStatement(ctx context.Context, st Statement) error

	// GetStatement returns the stored statement for a period, or
	// (nil, nil) when none was materialized.
	GetStatement(ctx context.Context, owner EmployeeID, period Month) (*Statement, error)

	// ListStatements returns every stored statement for an owner,
	// newest period first.
	ListStatements(ctx context.Context, owner EmployeeID) ([]Statement, error)

	// UpdateStatementStatus moves a statement through its lifecycle.
	UpdateStatementStatus(ctx context.Context, id string, status StatementStatus, actor string, at time.Time) error
}

// Sources bundles every read dependency of the engine.
type Sources struct {
	Trips     TripSource
	Expenses  ExpenseSource
	Treasury  TreasurySource
	Employees EmployeeDirectory
}
