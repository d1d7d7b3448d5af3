/*
Package tariff manages the per-year compensation tables.

PURPOSE:
  Each calendar year carries a table of (distance tier -> base amount) pairs
  plus three global parameters: the adjustment coefficient applied on top of
  every base amount, the hourly rate paid for waiting time, and the linear
  per-km rate used for trips beyond the tiered ceiling.

KEY CONCEPTS IN THIS FILE (types.go):
  - Config: per-year global parameters, with documented defaults
  - Tier: a discrete distance bucket (km) mapped to a base amount
  - TierEntry: an unvalidated (km, amount) pair, as produced by CSV import

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary field, never float64
  2. Missing data is a valid state: an absent year resolves to defaults,
     an absent tier resolves to zero compensation (see resolver.go)
  3. Tier tables mutate only through all-or-nothing operations per year

SEE ALSO:
  - store.go: persistence contract and mutation semantics
  - resolver.go: tier lookup with distance normalization
  - csv.go: tabular import with per-row validation
*/
package tariff

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG - Per-year global parameters
// =============================================================================

// Config holds the per-year payroll parameters. Exactly one config exists
// per year; years without a stored config use Defaults().
type Config struct {
	Year                  int
	AdjustmentCoefficient decimal.Decimal // multiplicative, e.g. 1.17 = +17%
	HourlyWaitingRate     decimal.Decimal // currency per hour of waiting
	OverageRatePerKm      decimal.Decimal // currency per km beyond the tiered ceiling
}

// Defaults returns the documented fallback parameters for a year that has
// no stored config: coefficient 1.17, waiting 15.00/h, overage 0.25/km.
func Defaults(year int) Config {
	return Config{
		Year:                  year,
		AdjustmentCoefficient: decimal.NewFromFloat(1.17),
		HourlyWaitingRate:     decimal.NewFromFloat(15.00),
		OverageRatePerKm:      decimal.NewFromFloat(0.25),
	}
}

// =============================================================================
// TIERS - Distance buckets
// =============================================================================

// TieredCeilingKm is the last distance covered by the tier table. Trips
// longer than this are rated linearly at Config.OverageRatePerKm.
const TieredCeilingKm = 200

// MinTierKm is the smallest tier key. Shorter trips clamp up to it.
const MinTierKm = 12

// Tier maps a distance bucket to its base compensation for one year.
// Unique per (Year, Km).
type Tier struct {
	Year       int
	Km         int
	BaseAmount decimal.Decimal
}

// TierEntry is a (km, amount) pair before it is bound to a year. Bulk
// operations (CSV import, year clone) work in terms of entries.
type TierEntry struct {
	Km         int
	BaseAmount decimal.Decimal
}

// DefaultTierEntries returns the standard tier ladder: 12 km, then every
// 5 km up to the ceiling, priced linearly from the given start amount and
// per-step increment. Used by the demo seed and as a starting point for a
// fresh year.
func DefaultTierEntries(startAmount, stepAmount decimal.Decimal) []TierEntry {
	entries := []TierEntry{{Km: MinTierKm, BaseAmount: startAmount}}
	amount := startAmount
	for km := 15; km <= TieredCeilingKm; km += 5 {
		amount = amount.Add(stepAmount)
		entries = append(entries, TierEntry{Km: km, BaseAmount: amount})
	}
	return entries
}

// MustDecimal parses a stored decimal value, returning zero on failure.
// Intended for values this system wrote itself (store columns, literals),
// not for user input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
