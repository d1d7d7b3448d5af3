/*
resolver.go - Base compensation lookup with distance normalization

PURPOSE:
  Converts a trip's total distance into its base monetary compensation for
  a given year, before the adjustment coefficient is applied.

ALGORITHM:
  1. Distances up to 200 km use the tier table:
     - below 12 km the distance clamps up to 12
     - exactly 12 km is looked up as-is
     - above 12 km the distance rounds to the nearest multiple of 5
       (half rounds up: 13 -> 15, 17 -> 15, 18 -> 20)
     An exact tier match returns its base amount. A missing tier returns
     zero, never an error: a 0.00 distance line on a statement is how a
     hole in the tier table surfaces.
  2. Distances beyond 200 km are rated linearly: distance * overage rate,
     over the FULL distance, not only the excess beyond 200.

  ResolveBase is a pure function of (year, distance, stored tariff data).
  It never writes.

SEE ALSO:
  - store.go: where tier data comes from
  - payroll/calculator.go: applies coefficient and waiting pay on top
*/
package tariff

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOLVER - distance -> base amount
// =============================================================================

// Resolver computes base distance compensation from stored tariff data.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// NormalizeDistance maps a raw distance onto a tier key. Distances beyond
// the tiered ceiling are returned unchanged; callers rate those linearly.
func NormalizeDistance(totalKm int) int {
	if totalKm > TieredCeilingKm {
		return totalKm
	}
	if totalKm <= MinTierKm {
		return MinTierKm
	}
	// Nearest multiple of 5, half rounds up.
	remainder := totalKm % 5
	if remainder*2 >= 5 {
		return totalKm + (5 - remainder)
	}
	return totalKm - remainder
}

// ResolveBase returns the base compensation for a trip of totalKm in the
// given year. A missing tier yields zero; only storage failures error.
func (r *Resolver) ResolveBase(ctx context.Context, year, totalKm int) (decimal.Decimal, error) {
	if totalKm > TieredCeilingKm {
		config, err := r.store.GetConfig(ctx, year)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(int64(totalKm)).Mul(config.OverageRatePerKm), nil
	}

	normalized := NormalizeDistance(totalKm)
	tiers, err := r.store.GetTiers(ctx, year)
	if err != nil {
		return decimal.Zero, err
	}
	for _, tier := range tiers {
		if tier.Km == normalized {
			return tier.BaseAmount, nil
		}
	}
	// No tier at the normalized distance: zero compensation.
	return decimal.Zero, nil
}
