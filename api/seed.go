/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:
  Populates the database with a realistic month of data for demos: a
  tariff ladder, three drivers, finalized trips (mixed payment methods),
  approved expense claims, and treasury movements. After loading, a
  payroll run for the seeded period produces non-trivial statements
  that exercise every part of the calculation.

HOW THE SEED WORKS:
 1. Reset database (clear all data)
 2. Save the current year's config and default tier ladder
 3. Create drivers
 4. Add finalized trips, approved claims, treasury movements

USAGE VIA API:

	POST /api/demo/load
	POST /api/reset

NOTE:
  Loading the demo resets the database. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: shared response helpers
  - tariff/types.go: DefaultTierEntries
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// HANDLERS
// =============================================================================

// LoadDemo resets the database and loads the demo dataset.
// POST /api/demo/load
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	period := payroll.NewMonth(time.Now().UTC().Year(), time.Now().UTC().Month()).Previous()

	if err := h.loadDemoData(r.Context(), period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load demo data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"loaded": true,
		"period": period.String(),
	})
}

// ResetDatabase clears all data.
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// =============================================================================
// DEMO DATASET
// =============================================================================

func (h *Handler) loadDemoData(ctx context.Context, period payroll.Month) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}

	// Tariff: default parameters plus a regular ladder (10.00 at 12 km,
	// +2.00 per 5 km step).
	if err := h.Store.SaveConfig(ctx, tariff.Defaults(period.Year)); err != nil {
		return err
	}
	if err := h.Store.ReplaceTiers(ctx, period.Year, tariff.DefaultTierEntries(decimal.NewFromInt(10), decimal.NewFromInt(2))); err != nil {
		return err
	}

	first, _ := period.Bounds()
	day := func(d int) time.Time { return first.AddDate(0, 0, d-1) }

	drivers := []payroll.Employee{
		{ID: "drv-rossi", Name: "Mario Rossi", HiredAt: day(1).AddDate(-3, 0, 0)},
		{ID: "drv-bianchi", Name: "Lucia Bianchi", HiredAt: day(1).AddDate(-1, -6, 0)},
		{ID: "drv-ferrari", Name: "Paolo Ferrari", HiredAt: day(1).AddDate(0, -2, 0)},
	}
	for _, d := range drivers {
		if err := h.Store.SaveEmployee(ctx, d); err != nil {
			return err
		}
	}

	trips := []payroll.Trip{
		// Rossi: short urban runs, one cash fare, one long transfer.
		{AssigneeID: "drv-rossi", Date: day(2), TotalDistanceKm: 8, WaitingHours: decimal.Zero, PaymentMethod: payroll.PaymentCard, Status: payroll.TripStatusCompleted},
		{AssigneeID: "drv-rossi", Date: day(5), TotalDistanceKm: 37, WaitingHours: decimal.NewFromFloat(0.5), PaymentMethod: payroll.PaymentCash, AmountCollected: decimal.NewFromFloat(62.00), Status: payroll.TripStatusConsuntivated},
		{AssigneeID: "drv-rossi", Date: day(12), TotalDistanceKm: 240, WaitingHours: decimal.NewFromInt(1), PaymentMethod: payroll.PaymentInvoice, Status: payroll.TripStatusConsuntivated},
		// Bianchi: mid-range trips, one waiting-heavy airport run.
		{AssigneeID: "drv-bianchi", Date: day(3), TotalDistanceKm: 55, WaitingHours: decimal.NewFromFloat(2.5), PaymentMethod: payroll.PaymentCard, Status: payroll.TripStatusCompleted},
		{AssigneeID: "drv-bianchi", Date: day(9), TotalDistanceKm: 17, WaitingHours: decimal.Zero, PaymentMethod: payroll.PaymentCash, AmountCollected: decimal.NewFromFloat(35.50), Status: payroll.TripStatusCompleted},
		{AssigneeID: "drv-bianchi", Date: day(20), TotalDistanceKm: 120, WaitingHours: decimal.NewFromInt(1), PaymentMethod: payroll.PaymentInvoice, Status: payroll.TripStatusConsuntivated},
		// Ferrari: one still-planned trip that must NOT count.
		{AssigneeID: "drv-ferrari", Date: day(7), TotalDistanceKm: 90, WaitingHours: decimal.Zero, PaymentMethod: payroll.PaymentCard, Status: payroll.TripStatusCompleted},
		{AssigneeID: "drv-ferrari", Date: day(25), TotalDistanceKm: 150, WaitingHours: decimal.NewFromFloat(0.5), PaymentMethod: payroll.PaymentCard, Status: payroll.TripStatusPlanned},
	}
	for i, t := range trips {
		t.ID = fmt.Sprintf("trip-%02d", i+1)
		if err := h.Store.SaveTrip(ctx, t); err != nil {
			return err
		}
	}

	claims := []payroll.ExpenseClaim{
		{ID: "claim-01", OwnerID: "drv-rossi", Date: day(6), Amount: decimal.NewFromFloat(45.80), Status: payroll.ClaimStatusApproved},
		{ID: "claim-02", OwnerID: "drv-bianchi", Date: day(10), Amount: decimal.NewFromFloat(21.00), Status: payroll.ClaimStatusApproved},
		// Pending claims never reach a statement.
		{ID: "claim-03", OwnerID: "drv-bianchi", Date: day(22), Amount: decimal.NewFromFloat(130.00), Status: payroll.ClaimStatusPending},
	}
	for _, c := range claims {
		if err := h.Store.SaveExpenseClaim(ctx, c); err != nil {
			return err
		}
	}

	movements := []payroll.TreasuryMovement{
		{ID: "mov-01", OwnerID: "drv-rossi", Date: day(15), Amount: decimal.NewFromFloat(100.00), Kind: payroll.MovementWithdrawal},
		{ID: "mov-02", OwnerID: "drv-bianchi", Date: day(18), Amount: decimal.NewFromFloat(80.00), Kind: payroll.MovementCollection},
	}
	for _, m := range movements {
		if err := h.Store.SaveMovement(ctx, m); err != nil {
			return err
		}
	}

	return nil
}
