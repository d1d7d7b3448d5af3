/*
store.go - Persistence contract for tariff data

PURPOSE:
  Defines the interface between the tariff tables and the database.
  Implementations live in store/sqlite (production) and store/memory (tests).

MUTATION SEMANTICS:
  Tier tables change only through per-year all-or-nothing operations:
  - ReplaceTiers: bulk replace, used by CSV import
  - CloneFromPreviousYear: copy last year's ladder into a fresh year
  - UpsertTier: single-row edit
  A statement computation must never observe a half-replaced table; the
  (year, km) unique constraint plus a database transaction enforce this.

CLONE POLICY:
  CloneFromPreviousYear refuses to touch a year that already has any tiers
  and returns ErrYearNotEmpty. Overwriting an existing ladder requires an
  explicit ReplaceTiers so it cannot happen by accident.

SEE ALSO:
  - store/sqlite/sqlite.go: concrete implementation
  - store/memory/memory.go: in-memory implementation for tests
*/
package tariff

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateKm is returned when a bulk operation contains the same
	// km key twice. The operation applies nothing.
	ErrDuplicateKm = errors.New("duplicate km in tier batch")

	// ErrYearNotEmpty is returned by CloneFromPreviousYear when the target
	// year already has tiers. Use ReplaceTiers to overwrite explicitly.
	ErrYearNotEmpty = errors.New("target year already has tiers")

	// ErrSourceYearEmpty is returned by CloneFromPreviousYear when the
	// source year has nothing to copy.
	ErrSourceYearEmpty = errors.New("previous year has no tiers")

	// ErrInvalidTier is returned for a non-positive km or amount.
	ErrInvalidTier = errors.New("invalid tier")
)

// DuplicateKmError reports which key appeared twice in a batch.
type DuplicateKmError struct {
	Year int
	Km   int
}

func (e *DuplicateKmError) Error() string {
	return fmt.Sprintf("duplicate km %d in tier batch for year %d", e.Km, e.Year)
}

func (e *DuplicateKmError) Unwrap() error { return ErrDuplicateKm }

// =============================================================================
// STORE - Interface for tariff persistence
// =============================================================================

// Store persists per-year configs and tier tables.
//
// GetConfig and GetTiers never fail on missing data: an absent year yields
// Defaults(year) and an empty tier slice respectively. Errors indicate
// storage failures only.
type Store interface {
	// GetConfig returns the config for a year, or Defaults(year) if none
	// is stored.
	GetConfig(ctx context.Context, year int) (Config, error)

	// SaveConfig installs or updates the config for config.Year.
	SaveConfig(ctx context.Context, config Config) error

	// GetTiers returns the tiers for a year, ascending by km.
	GetTiers(ctx context.Context, year int) ([]Tier, error)

	// ReplaceTiers atomically replaces every tier for a year. Entries with
	// a duplicate km cause a *DuplicateKmError and nothing is applied.
	ReplaceTiers(ctx context.Context, year int, entries []TierEntry) error

	// UpsertTier installs or updates a single tier row.
	UpsertTier(ctx context.Context, year, km int, baseAmount decimal.Decimal) error

	// CloneFromPreviousYear copies all tiers from targetYear-1 into
	// targetYear. Fails with ErrYearNotEmpty if the target already has
	// any tiers, and ErrSourceYearEmpty if there is nothing to copy.
	CloneFromPreviousYear(ctx context.Context, targetYear int) error
}

// ValidateEntries checks a batch for duplicate or invalid rows before it is
// handed to ReplaceTiers. Store implementations call this so both share the
// same rejection behavior.
func ValidateEntries(year int, entries []TierEntry) error {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Km <= 0 || !e.BaseAmount.IsPositive() {
			return fmt.Errorf("%w: km %d amount %s", ErrInvalidTier, e.Km, e.BaseAmount)
		}
		if seen[e.Km] {
			return &DuplicateKmError{Year: year, Km: e.Km}
		}
		seen[e.Km] = true
	}
	return nil
}
