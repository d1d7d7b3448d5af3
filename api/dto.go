/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Monetary values cross
  the wire as strings ("23.40") so clients never see float artifacts.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// TARIFF TYPES
// =============================================================================

// ConfigDTO represents a year's global parameters.
type ConfigDTO struct {
	Year                  int    `json:"year"`
	AdjustmentCoefficient string `json:"adjustment_coefficient"`
	HourlyWaitingRate     string `json:"hourly_waiting_rate"`
	OverageRatePerKm      string `json:"overage_rate_per_km"`
}

// SaveConfigRequest updates a year's global parameters.
type SaveConfigRequest struct {
	AdjustmentCoefficient string `json:"adjustment_coefficient"`
	HourlyWaitingRate     string `json:"hourly_waiting_rate"`
	OverageRatePerKm      string `json:"overage_rate_per_km"`
}

// TierDTO represents one distance tier.
type TierDTO struct {
	Km         int    `json:"km"`
	BaseAmount string `json:"base_amount"`
}

// TariffDTO bundles a year's config and tier ladder.
type TariffDTO struct {
	Config ConfigDTO `json:"config"`
	Tiers  []TierDTO `json:"tiers"`
}

// ReplaceTiersRequest is the JSON bulk-replace body.
type ReplaceTiersRequest struct {
	Tiers []TierDTO `json:"tiers"`
}

// UpsertTierRequest edits a single tier row.
type UpsertTierRequest struct {
	Km         int    `json:"km"`
	BaseAmount string `json:"base_amount"`
}

// ImportResultDTO reports a tier import outcome.
type ImportResultDTO struct {
	Year     int               `json:"year"`
	Imported int               `json:"imported"`
	Errors   []tariff.RowError `json:"errors,omitempty"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents a driver in API responses.
type EmployeeDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HiredAt string `json:"hired_at"`
}

// CreateEmployeeRequest creates a driver record.
type CreateEmployeeRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HiredAt string `json:"hired_at"`
}

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// TripBreakdownDTO is one audit line of a statement.
type TripBreakdownDTO struct {
	TripID        string `json:"trip_id"`
	Date          string `json:"date"`
	DistanceKm    int    `json:"distance_km"`
	BaseAmount    string `json:"base_amount"`
	DistanceComp  string `json:"distance_comp"`
	WaitingComp   string `json:"waiting_comp"`
	CashDeduction string `json:"cash_deduction"`
	Net           string `json:"net"`
}

// StatementDTO is the monthly statement with every subtotal retained.
type StatementDTO struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`

	DistanceComp     string `json:"distance_comp"`
	WaitingComp      string `json:"waiting_comp"`
	ExpenseAdditions string `json:"expense_additions"`
	CarryOver        string `json:"carry_over"`
	CashDeductions   string `json:"cash_deductions"`
	Withdrawals      string `json:"withdrawals"`
	Collections      string `json:"collections"`

	TotalAdditions  string `json:"total_additions"`
	TotalDeductions string `json:"total_deductions"`
	NetAmount       string `json:"net_amount"`

	Trips    []TripBreakdownDTO `json:"trips"`
	Warnings []string           `json:"warnings,omitempty"`

	Status      string `json:"status"`
	ConfirmedBy string `json:"confirmed_by,omitempty"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
	ComputedAt  string `json:"computed_at"`
}

// ComputeStatementRequest asks for one driver's month.
type ComputeStatementRequest struct {
	OwnerID string `json:"owner_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Persist bool   `json:"persist"`
}

// ConfirmStatementRequest moves a statement through its lifecycle.
type ConfirmStatementRequest struct {
	OwnerID string `json:"owner_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Actor   string `json:"actor"`
}

// RunMonthRequest triggers a whole-company payroll run.
type RunMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// RunResultDTO is one driver's outcome within a run.
type RunResultDTO struct {
	OwnerID   string        `json:"owner_id"`
	Statement *StatementDTO `json:"statement,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// =============================================================================
// SIMULATION TYPES
// =============================================================================

// SimulateRequest previews a hypothetical trip.
type SimulateRequest struct {
	Year         int    `json:"year"`
	DistanceKm   int    `json:"distance_km"`
	WaitingHours string `json:"waiting_hours"`
}

// SimulationDTO is the preview breakdown.
type SimulationDTO struct {
	Year         int    `json:"year"`
	DistanceKm   int    `json:"distance_km"`
	WaitingHours string `json:"waiting_hours"`
	BaseAmount   string `json:"base_amount"`
	DistanceComp string `json:"distance_comp"`
	WaitingComp  string `json:"waiting_comp"`
	Total        string `json:"total"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toConfigDTO(c tariff.Config) ConfigDTO {
	return ConfigDTO{
		Year:                  c.Year,
		AdjustmentCoefficient: c.AdjustmentCoefficient.String(),
		HourlyWaitingRate:     c.HourlyWaitingRate.String(),
		OverageRatePerKm:      c.OverageRatePerKm.String(),
	}
}

func toTierDTOs(tiers []tariff.Tier) []TierDTO {
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = TierDTO{Km: t.Km, BaseAmount: t.BaseAmount.String()}
	}
	return dtos
}

func toStatementDTO(st *payroll.Statement) *StatementDTO {
	dto := &StatementDTO{
		ID:      st.ID,
		OwnerID: string(st.OwnerID),
		Year:    st.Year,
		Month:   int(st.Month),

		DistanceComp:     st.DistanceComp.String(),
		WaitingComp:      st.WaitingComp.String(),
		ExpenseAdditions: st.ExpenseAdditions.String(),
		CarryOver:        st.CarryOver.String(),
		CashDeductions:   st.CashDeductions.String(),
		Withdrawals:      st.Withdrawals.String(),
		Collections:      st.Collections.String(),

		TotalAdditions:  st.TotalAdditions.String(),
		TotalDeductions: st.TotalDeductions.String(),
		NetAmount:       st.NetAmount.String(),

		Warnings:    st.Warnings,
		Status:      string(st.Status),
		ConfirmedBy: st.ConfirmedBy,
		ComputedAt:  st.ComputedAt.Format(time.RFC3339),
	}
	if st.ConfirmedAt != nil {
		dto.ConfirmedAt = st.ConfirmedAt.Format(time.RFC3339)
	}
	dto.Trips = make([]TripBreakdownDTO, len(st.Trips))
	for i, tb := range st.Trips {
		dto.Trips[i] = TripBreakdownDTO{
			TripID:        tb.TripID,
			Date:          tb.Date.Format("2006-01-02"),
			DistanceKm:    tb.DistanceKm,
			BaseAmount:    tb.BaseAmount.String(),
			DistanceComp:  tb.DistanceComp.String(),
			WaitingComp:   tb.WaitingComp.String(),
			CashDeduction: tb.CashDeduction.String(),
			Net:           tb.Net.String(),
		}
	}
	return dto
}

func toSimulationDTO(sim *payroll.Simulation) SimulationDTO {
	return SimulationDTO{
		Year:         sim.Year,
		DistanceKm:   sim.DistanceKm,
		WaitingHours: sim.WaitingHours.String(),
		BaseAmount:   sim.BaseAmount.String(),
		DistanceComp: sim.DistanceComp.String(),
		WaitingComp:  sim.WaitingComp.String(),
		Total:        sim.Total.String(),
	}
}

func parseDecimalField(s, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &fieldError{Field: name, Value: s}
	}
	return d, nil
}

type fieldError struct {
	Field string
	Value string
}

func (e *fieldError) Error() string {
	return e.Field + ": " + e.Value + " is not a valid decimal"
}
