/*
Package payroll computes monthly compensation statements for drivers.

PURPOSE:
  Converts a month of finalized trips, approved expense claims, and treasury
  movements into one net amount owed to (or by) a driver, with every
  intermediate subtotal retained for audit.

KEY CONCEPTS IN THIS FILE (types.go):
  - Trip: a completed service with distance, waiting hours, payment method
  - ExpenseClaim: a reimbursable expense, counted only when approved
  - TreasuryMovement: a withdrawal or collection that offsets the payout
  - Statement: the monthly result, draft -> confirmed -> paid
  - TripBreakdown: per-trip audit line inside a statement

DESIGN PRINCIPLES:
  1. The engine reads trips, claims and movements; it never mutates them.
     Those records belong to the upstream dispatch and expense workflows.
  2. Statements are derived data, recomputable at any time from inputs.
  3. decimal.Decimal for all money; a statement must reconcile exactly.
  4. A negative net is a valid result: the driver owes the company.

SEE ALSO:
  - calculator.go: single-trip compensation
  - engine.go: monthly aggregation, simulation, payroll runs
  - store.go: read/write contracts toward the record store
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// Employee is the minimal payroll view of a driver/partner record.
type Employee struct {
	ID        EmployeeID
	Name      string
	HiredAt   time.Time
	CreatedAt time.Time
}

// =============================================================================
// TRIP - One completed service
// =============================================================================

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentInvoice PaymentMethod = "invoice"
)

type TripStatus string

const (
	TripStatusPlanned       TripStatus = "planned"
	TripStatusCompleted     TripStatus = "completed"
	TripStatusConsuntivated TripStatus = "consuntivated"
	TripStatusCanceled      TripStatus = "canceled"
)

// FinalizedTripStatuses are the statuses that count toward payroll.
var FinalizedTripStatuses = []TripStatus{TripStatusCompleted, TripStatusConsuntivated}

// IsFinalized reports whether a trip in this status counts toward payroll.
func (s TripStatus) IsFinalized() bool {
	for _, fs := range FinalizedTripStatuses {
		if s == fs {
			return true
		}
	}
	return false
}

// Trip is one service record as payroll sees it.
type Trip struct {
	ID              string
	AssigneeID      EmployeeID
	Date            time.Time
	TotalDistanceKm int
	WaitingHours    decimal.Decimal
	PaymentMethod   PaymentMethod
	AmountCollected decimal.Decimal
	Status          TripStatus
}

// =============================================================================
// EXPENSE CLAIM - Reimbursable expense
// =============================================================================

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

type ExpenseClaim struct {
	ID      string
	OwnerID EmployeeID
	Date    time.Time
	Amount  decimal.Decimal
	Status  ClaimStatus
}

// =============================================================================
// TREASURY MOVEMENT - Cash flow offsetting the payout
// =============================================================================

type MovementKind string

const (
	// MovementWithdrawal is money the driver took out of the company till.
	MovementWithdrawal MovementKind = "withdrawal"
	// MovementCollection is money the driver received from third parties
	// on the company's behalf.
	MovementCollection MovementKind = "collection"
)

type TreasuryMovement struct {
	ID      string
	OwnerID EmployeeID
	Date    time.Time
	Amount  decimal.Decimal
	Kind    MovementKind
}

// =============================================================================
// STATEMENT - Monthly result
// =============================================================================

type StatementStatus string

const (
	StatementDraft     StatementStatus = "draft"
	StatementConfirmed StatementStatus = "confirmed"
	StatementPaid      StatementStatus = "paid"
)

// TripBreakdown is the audit line for one trip inside a statement.
// Serialized as-is into the statement's audit column.
type TripBreakdown struct {
	TripID        string          `json:"trip_id"`
	Date          time.Time       `json:"date"`
	DistanceKm    int             `json:"distance_km"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	DistanceComp  decimal.Decimal `json:"distance_comp"`
	WaitingComp   decimal.Decimal `json:"waiting_comp"`
	CashDeduction decimal.Decimal `json:"cash_deduction"`
	Net           decimal.Decimal `json:"net"`
}

// Statement is the monthly compensation result for one driver. Every
// subtotal that fed the net is retained; the net alone is never trusted.
type Statement struct {
	ID      string
	OwnerID EmployeeID
	Year    int
	Month   time.Month

	// Additions
	DistanceComp     decimal.Decimal
	WaitingComp      decimal.Decimal
	ExpenseAdditions decimal.Decimal
	CarryOver        decimal.Decimal // signed: prior month's net

	// Deductions
	CashDeductions decimal.Decimal
	Withdrawals    decimal.Decimal
	Collections    decimal.Decimal

	TotalAdditions  decimal.Decimal
	TotalDeductions decimal.Decimal
	NetAmount       decimal.Decimal

	Trips    []TripBreakdown
	Warnings []string

	Status      StatementStatus
	ConfirmedBy string
	ConfirmedAt *time.Time
	ComputedAt  time.Time
}
