/*
sqlite_test.go - Storage layer tests

Tests for:
- Tariff config round-trip and default fallback
- Atomic tier replacement and year cloning
- Window and status filtering on trips, claims, movements
- Statement persistence and lifecycle updates
*/
package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// TARIFF CONFIG
// =============================================================================

func TestConfig_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := tariff.Config{
		Year:                  2026,
		AdjustmentCoefficient: dec("1.20"),
		HourlyWaitingRate:     dec("18.50"),
		OverageRatePerKm:      dec("0.30"),
	}
	require.NoError(t, store.SaveConfig(ctx, in))

	out, err := store.GetConfig(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, out.AdjustmentCoefficient.Equal(dec("1.20")))
	assert.True(t, out.HourlyWaitingRate.Equal(dec("18.50")))
	assert.True(t, out.OverageRatePerKm.Equal(dec("0.30")))
}

func TestConfig_MissingYear_ReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	config, err := store.GetConfig(context.Background(), 2031)
	require.NoError(t, err)
	assert.True(t, config.AdjustmentCoefficient.Equal(dec("1.17")))
	assert.True(t, config.HourlyWaitingRate.Equal(dec("15.00")))
	assert.True(t, config.OverageRatePerKm.Equal(dec("0.25")))
}

func TestConfig_SaveTwice_Updates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := tariff.Defaults(2026)
	require.NoError(t, store.SaveConfig(ctx, first))

	first.AdjustmentCoefficient = dec("1.25")
	require.NoError(t, store.SaveConfig(ctx, first))

	out, err := store.GetConfig(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, out.AdjustmentCoefficient.Equal(dec("1.25")))
}

// =============================================================================
// DISTANCE TIERS
// =============================================================================

func TestReplaceTiers_RoundTripSortedByKm(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTiers(ctx, 2026, []tariff.TierEntry{
		{Km: 20, BaseAmount: dec("26.50")},
		{Km: 12, BaseAmount: dec("10.00")},
		{Km: 15, BaseAmount: dec("20.00")},
	}))

	tiers, err := store.GetTiers(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, 12, tiers[0].Km)
	assert.Equal(t, 15, tiers[1].Km)
	assert.Equal(t, 20, tiers[2].Km)
	assert.True(t, tiers[1].BaseAmount.Equal(dec("20.00")))
}

func TestReplaceTiers_InvalidBatch_LeavesOldLadderIntact(t *testing.T) {
	// GIVEN: A stored ladder
	// WHEN: Replacing with a batch containing a duplicate km
	// THEN: The batch is rejected and the old ladder is untouched

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTiers(ctx, 2026, []tariff.TierEntry{
		{Km: 12, BaseAmount: dec("10.00")},
	}))

	err := store.ReplaceTiers(ctx, 2026, []tariff.TierEntry{
		{Km: 15, BaseAmount: dec("20.00")},
		{Km: 15, BaseAmount: dec("21.00")},
	})
	require.ErrorIs(t, err, tariff.ErrDuplicateKm)

	tiers, err := store.GetTiers(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, 12, tiers[0].Km)
}

func TestReplaceTiers_DoesNotTouchOtherYears(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTiers(ctx, 2025, []tariff.TierEntry{
		{Km: 12, BaseAmount: dec("9.00")},
	}))
	require.NoError(t, store.ReplaceTiers(ctx, 2026, []tariff.TierEntry{
		{Km: 12, BaseAmount: dec("10.00")},
	}))

	tiers, err := store.GetTiers(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.True(t, tiers[0].BaseAmount.Equal(dec("9.00")))
}

func TestUpsertTier_InsertThenUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2026, 15, dec("20.00")))
	require.NoError(t, store.UpsertTier(ctx, 2026, 15, dec("22.00")))

	tiers, err := store.GetTiers(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.True(t, tiers[0].BaseAmount.Equal(dec("22.00")))
}

func TestCloneFromPreviousYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTiers(ctx, 2025, []tariff.TierEntry{
		{Km: 12, BaseAmount: dec("10.00")},
		{Km: 15, BaseAmount: dec("20.00")},
	}))

	require.NoError(t, store.CloneFromPreviousYear(ctx, 2026))

	tiers, err := store.GetTiers(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.True(t, tiers[1].BaseAmount.Equal(dec("20.00")))
}

func TestCloneFromPreviousYear_TargetNotEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2025, 12, dec("10.00")))
	require.NoError(t, store.UpsertTier(ctx, 2026, 12, dec("11.00")))

	err := store.CloneFromPreviousYear(ctx, 2026)
	assert.ErrorIs(t, err, tariff.ErrYearNotEmpty)
}

func TestCloneFromPreviousYear_SourceEmpty(t *testing.T) {
	store := newTestStore(t)

	err := store.CloneFromPreviousYear(context.Background(), 2026)
	assert.ErrorIs(t, err, tariff.ErrSourceYearEmpty)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := payroll.Employee{
		ID:      "drv-1",
		Name:    "Mario Rossi",
		HiredAt: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEmployee(ctx, in))

	out, err := store.GetEmployee(ctx, "drv-1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.HiredAt, out.HiredAt)
}

func TestEmployee_UnknownID_ReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	out, err := store.GetEmployee(context.Background(), "drv-ghost")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestListEmployees_OrderedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "b", Name: "Paolo", HiredAt: day(1)}))
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "a", Name: "Lucia", HiredAt: day(1)}))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Lucia", employees[0].Name)
}

// =============================================================================
// TRIPS
// =============================================================================

func TestListFinalizedTrips_FiltersStatusAndWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	save := func(id string, date time.Time, status payroll.TripStatus) {
		require.NoError(t, store.SaveTrip(ctx, payroll.Trip{
			ID:              id,
			AssigneeID:      "drv-1",
			Date:            date,
			TotalDistanceKm: 15,
			WaitingHours:    decimal.Zero,
			PaymentMethod:   payroll.PaymentCard,
			AmountCollected: decimal.Zero,
			Status:          status,
		}))
	}

	save("in-completed", day(5), payroll.TripStatusCompleted)
	save("in-consuntivated", day(10), payroll.TripStatusConsuntivated)
	save("out-planned", day(12), payroll.TripStatusPlanned)
	save("out-canceled", day(15), payroll.TripStatusCanceled)
	save("out-of-window", time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC), payroll.TripStatusCompleted)

	from, to := payroll.NewMonth(2026, time.March).Bounds()
	trips, err := store.ListFinalizedTrips(ctx, "drv-1", from, to)
	require.NoError(t, err)

	require.Len(t, trips, 2)
	assert.Equal(t, "in-completed", trips[0].ID)
	assert.Equal(t, "in-consuntivated", trips[1].ID)
}

func TestListFinalizedTrips_FiltersAssignee(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTrip(ctx, payroll.Trip{
		ID: "trip-1", AssigneeID: "drv-1", Date: day(5), TotalDistanceKm: 15,
		WaitingHours: decimal.Zero, PaymentMethod: payroll.PaymentCard,
		AmountCollected: decimal.Zero, Status: payroll.TripStatusCompleted,
	}))

	from, to := payroll.NewMonth(2026, time.March).Bounds()
	trips, err := store.ListFinalizedTrips(ctx, "drv-2", from, to)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestTrip_DecimalFieldsSurviveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTrip(ctx, payroll.Trip{
		ID: "trip-1", AssigneeID: "drv-1", Date: day(5), TotalDistanceKm: 250,
		WaitingHours:    dec("1.5"),
		PaymentMethod:   payroll.PaymentCash,
		AmountCollected: dec("62.50"),
		Status:          payroll.TripStatusCompleted,
	}))

	from, to := payroll.NewMonth(2026, time.March).Bounds()
	trips, err := store.ListFinalizedTrips(ctx, "drv-1", from, to)
	require.NoError(t, err)
	require.Len(t, trips, 1)

	assert.True(t, trips[0].WaitingHours.Equal(dec("1.5")))
	assert.True(t, trips[0].AmountCollected.Equal(dec("62.50")))
	assert.Equal(t, 250, trips[0].TotalDistanceKm)
}

// =============================================================================
// CLAIMS AND MOVEMENTS
// =============================================================================

func TestListApprovedClaims_OnlyApproved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	save := func(id string, status payroll.ClaimStatus) {
		require.NoError(t, store.SaveExpenseClaim(ctx, payroll.ExpenseClaim{
			ID: id, OwnerID: "drv-1", Date: day(5), Amount: dec("10.00"), Status: status,
		}))
	}
	save("approved", payroll.ClaimStatusApproved)
	save("pending", payroll.ClaimStatusPending)
	save("rejected", payroll.ClaimStatusRejected)

	from, to := payroll.NewMonth(2026, time.March).Bounds()
	claims, err := store.ListApprovedClaims(ctx, "drv-1", from, to)
	require.NoError(t, err)

	require.Len(t, claims, 1)
	assert.Equal(t, "approved", claims[0].ID)
}

func TestListMovements_BothKindsWithinWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMovement(ctx, payroll.TreasuryMovement{
		ID: "mov-1", OwnerID: "drv-1", Date: day(3), Amount: dec("100.00"), Kind: payroll.MovementWithdrawal,
	}))
	require.NoError(t, store.SaveMovement(ctx, payroll.TreasuryMovement{
		ID: "mov-2", OwnerID: "drv-1", Date: day(20), Amount: dec("80.00"), Kind: payroll.MovementCollection,
	}))
	require.NoError(t, store.SaveMovement(ctx, payroll.TreasuryMovement{
		ID: "mov-3", OwnerID: "drv-1", Date: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		Amount: dec("5.00"), Kind: payroll.MovementWithdrawal,
	}))

	from, to := payroll.NewMonth(2026, time.March).Bounds()
	movements, err := store.ListMovements(ctx, "drv-1", from, to)
	require.NoError(t, err)

	require.Len(t, movements, 2)
	assert.Equal(t, payroll.MovementWithdrawal, movements[0].Kind)
	assert.Equal(t, payroll.MovementCollection, movements[1].Kind)
}

// =============================================================================
// STATEMENTS
// =============================================================================

func sampleStatement(id string, month time.Month, net string) payroll.Statement {
	return payroll.Statement{
		ID:      id,
		OwnerID: "drv-1",
		Year:    2026,
		Month:   month,

		DistanceComp:     dec("96.525"),
		WaitingComp:      dec("30.00"),
		ExpenseAdditions: dec("45.80"),
		CarryOver:        dec("-30.00"),
		CashDeductions:   dec("40.00"),
		Withdrawals:      dec("100.00"),
		Collections:      dec("80.00"),
		TotalAdditions:   dec("172.325"),
		TotalDeductions:  dec("250.00"),
		NetAmount:        dec(net),

		Trips: []payroll.TripBreakdown{{
			TripID:        "trip-1",
			Date:          day(5),
			DistanceKm:    14,
			BaseAmount:    dec("20.00"),
			DistanceComp:  dec("23.40"),
			WaitingComp:   dec("30.00"),
			CashDeduction: decimal.Zero,
			Net:           dec("53.40"),
		}},
		Warnings:   []string{"trip trip-2: no tier for 47 km, distance compensation is zero"},
		Status:     payroll.StatementDraft,
		ComputedAt: time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStatement_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := sampleStatement("st-1", time.March, "-77.675")
	require.NoError(t, store.SaveStatement(ctx, in))

	out, err := store.GetStatement(ctx, "drv-1", payroll.NewMonth(2026, time.March))
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, out.NetAmount.Equal(dec("-77.675")))
	assert.True(t, out.CarryOver.Equal(dec("-30.00")))
	require.Len(t, out.Trips, 1)
	assert.True(t, out.Trips[0].Net.Equal(dec("53.40")))
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, payroll.StatementDraft, out.Status)
}

func TestStatement_SaveTwice_ReplacesPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-1", time.March, "10.00")))
	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-2", time.March, "20.00")))

	out, err := store.GetStatement(ctx, "drv-1", payroll.NewMonth(2026, time.March))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "st-2", out.ID)
	assert.True(t, out.NetAmount.Equal(dec("20.00")))

	all, err := store.ListStatements(ctx, "drv-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStatement_MissingPeriod_ReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	out, err := store.GetStatement(context.Background(), "drv-1", payroll.NewMonth(2026, time.March))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestListStatements_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-jan", time.January, "1.00")))
	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-mar", time.March, "3.00")))
	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-feb", time.February, "2.00")))

	all, err := store.ListStatements(ctx, "drv-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "st-mar", all[0].ID)
	assert.Equal(t, "st-feb", all[1].ID)
	assert.Equal(t, "st-jan", all[2].ID)
}

func TestUpdateStatementStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-1", time.March, "10.00")))

	at := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateStatementStatus(ctx, "st-1", payroll.StatementConfirmed, "backoffice", at))

	out, err := store.GetStatement(ctx, "drv-1", payroll.NewMonth(2026, time.March))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, payroll.StatementConfirmed, out.Status)
	assert.Equal(t, "backoffice", out.ConfirmedBy)
	require.NotNil(t, out.ConfirmedAt)
	assert.Equal(t, at, *out.ConfirmedAt)
}

func TestUpdateStatementStatus_UnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateStatementStatus(context.Background(), "st-ghost",
		payroll.StatementConfirmed, "backoffice", time.Now())
	assert.ErrorIs(t, err, payroll.ErrStatementNotFound)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2026, 15, dec("20.00")))
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "drv-1", Name: "Mario", HiredAt: day(1)}))
	require.NoError(t, store.SaveStatement(ctx, sampleStatement("st-1", time.March, "10.00")))

	require.NoError(t, store.Reset(ctx))

	tiers, err := store.GetTiers(ctx, 2026)
	require.NoError(t, err)
	assert.Empty(t, tiers)

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	st, err := store.GetStatement(ctx, "drv-1", payroll.NewMonth(2026, time.March))
	require.NoError(t, err)
	assert.Nil(t, st)
}