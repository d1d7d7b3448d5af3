package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tariff"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testConfig() tariff.Config {
	return tariff.Defaults(2026) // coefficient 1.17, waiting 15.00, overage 0.25
}

// =============================================================================
// SINGLE-TRIP MATH
// =============================================================================

func TestComputeTrip_CardTrip_NoCashDeduction(t *testing.T) {
	// GIVEN: A card trip, base 20.00, 2h waiting, under the default config
	// WHEN: Computing the trip
	// THEN: distanceComp 23.40, waitingComp 30.00, net 53.40, no deduction

	trip := payroll.Trip{
		ID:              "trip-1",
		TotalDistanceKm: 14,
		WaitingHours:    dec("2"),
		PaymentMethod:   payroll.PaymentCard,
		AmountCollected: decimal.Zero,
	}

	b := payroll.ComputeTrip(trip, dec("20.00"), testConfig())

	assert.True(t, b.DistanceComp.Equal(dec("23.40")), "distanceComp=%s", b.DistanceComp)
	assert.True(t, b.WaitingComp.Equal(dec("30.00")), "waitingComp=%s", b.WaitingComp)
	assert.True(t, b.CashDeduction.IsZero())
	assert.True(t, b.Net.Equal(dec("53.40")), "net=%s", b.Net)
}

func TestComputeTrip_CashTrip_CollectedAmountDeducted(t *testing.T) {
	// GIVEN: A cash trip with 40.00 collected, base 62.50 (250 km overage)
	// WHEN: Computing the trip
	// THEN: distanceComp 73.125, deduction 40.00, net 33.125

	trip := payroll.Trip{
		ID:              "trip-2",
		TotalDistanceKm: 250,
		WaitingHours:    decimal.Zero,
		PaymentMethod:   payroll.PaymentCash,
		AmountCollected: dec("40"),
	}

	b := payroll.ComputeTrip(trip, dec("62.50"), testConfig())

	assert.True(t, b.DistanceComp.Equal(dec("73.125")), "distanceComp=%s", b.DistanceComp)
	assert.True(t, b.CashDeduction.Equal(dec("40")))
	assert.True(t, b.Net.Equal(dec("33.125")), "net=%s", b.Net)
}

func TestComputeTrip_NonCashCollection_NotDeducted(t *testing.T) {
	// AmountCollected on a card or invoice trip settles through the
	// company, not the driver's pocket, so nothing comes off the trip.
	for _, method := range []payroll.PaymentMethod{payroll.PaymentCard, payroll.PaymentInvoice} {
		trip := payroll.Trip{
			TotalDistanceKm: 20,
			PaymentMethod:   method,
			AmountCollected: dec("55.00"),
			WaitingHours:    decimal.Zero,
		}
		b := payroll.ComputeTrip(trip, dec("26.50"), testConfig())
		assert.True(t, b.CashDeduction.IsZero(), "method=%s", method)
	}
}

func TestComputeTrip_ZeroBase_StillPaysWaiting(t *testing.T) {
	// A hole in the tier table zeroes the distance leg but never the
	// waiting leg.
	trip := payroll.Trip{
		TotalDistanceKm: 47,
		WaitingHours:    dec("1.5"),
		PaymentMethod:   payroll.PaymentCard,
	}

	b := payroll.ComputeTrip(trip, decimal.Zero, testConfig())

	assert.True(t, b.DistanceComp.IsZero())
	assert.True(t, b.WaitingComp.Equal(dec("22.50")))
	assert.True(t, b.Net.Equal(dec("22.50")))
}

func TestComputeTrip_CashTripNetCanGoNegative(t *testing.T) {
	// A short cash fare can collect more than the trip earns.
	trip := payroll.Trip{
		TotalDistanceKm: 12,
		WaitingHours:    decimal.Zero,
		PaymentMethod:   payroll.PaymentCash,
		AmountCollected: dec("50.00"),
	}

	b := payroll.ComputeTrip(trip, dec("10.00"), testConfig())

	assert.True(t, b.Net.Equal(dec("-38.30")), "net=%s", b.Net)
}

// =============================================================================
// PERIOD ARITHMETIC
// =============================================================================

func TestMonth_Bounds(t *testing.T) {
	from, to := payroll.NewMonth(2026, time.February).Bounds()

	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), to)
}

func TestMonth_PreviousCrossesYear(t *testing.T) {
	prev := payroll.NewMonth(2026, time.January).Previous()

	assert.Equal(t, 2025, prev.Year)
	assert.Equal(t, time.December, prev.Month)
}

func TestMonth_Contains(t *testing.T) {
	m := payroll.NewMonth(2026, time.March)

	assert.True(t, m.Contains(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.Contains(time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)))
}
