/*
engine.go - Monthly aggregation, simulation, payroll runs

PURPOSE:
  The Engine is the calculation core. ComputeStatement reconciles one
  driver's month; Simulate previews a hypothetical trip; RunMonth computes
  and materializes statements for every driver.

AGGREGATION:
  totalAdditions  = sum(distanceComp) + sum(waitingComp)
                  + approved expenses + max(carryOver, 0)
  totalDeductions = withdrawals + collections
                  + sum(cashDeduction) + max(-carryOver, 0)
  netAmount       = totalAdditions - totalDeductions

  Carry-over is the prior month's signed net: a positive prior net adds to
  this month, a negative one is a debt deducted from it. A negative result
  is valid and never clamped.

CONCURRENCY:
  The four input fetches (trips, expenses, treasury, prior statement) are
  independent reads and run concurrently. The computation itself is pure
  and lock-free; recomputing with unchanged inputs yields an identical
  statement, so concurrent computations for the same period are idempotent
  rather than mutually exclusive.

ERROR HANDLING:
  A failed fetch aborts with a ComputeError naming the input. Missing
  tiers and unknown treasury movement kinds are flagged in
  Statement.Warnings; data-integrity problems degrade, they do not abort.

SEE ALSO:
  - calculator.go: per-trip math
  - store.go: the interfaces fetched from
*/
package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes statements from tariff data and upstream records.
type Engine struct {
	tariffs    tariff.Store
	resolver   *tariff.Resolver
	sources    Sources
	statements StatementStore

	now func() time.Time
}

// NewEngine wires the engine to its data dependencies. statements may be
// nil for a pure compute/simulate engine that never persists.
func NewEngine(tariffs tariff.Store, sources Sources, statements StatementStore) *Engine {
	return &Engine{
		tariffs:    tariffs,
		resolver:   tariff.NewResolver(tariffs),
		sources:    sources,
		statements: statements,
		now:        time.Now,
	}
}

// =============================================================================
// MONTHLY STATEMENT
// =============================================================================

// monthInputs holds the four independently fetched inputs of a statement.
type monthInputs struct {
	trips     []Trip
	claims    []ExpenseClaim
	movements []TreasuryMovement
	prior     *Statement
}

// ComputeStatement reconciles one driver's month into a draft statement.
// It reads, computes, and returns; persisting is the caller's decision
// (see MaterializeStatement).
func (e *Engine) ComputeStatement(ctx context.Context, owner EmployeeID, period Month) (*Statement, error) {
	emp, err := e.sources.Employees.GetEmployee(ctx, owner)
	if err != nil {
		return nil, &ComputeError{OwnerID: owner, Year: period.Year, Month: period.Month, Input: "employee", Err: err}
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, owner)
	}

	inputs, err := e.fetchInputs(ctx, owner, period)
	if err != nil {
		return nil, err
	}

	config, err := e.tariffs.GetConfig(ctx, period.Year)
	if err != nil {
		return nil, &ComputeError{OwnerID: owner, Year: period.Year, Month: period.Month, Input: "tariff", Err: err}
	}

	st := &Statement{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Year:    period.Year,
		Month:   period.Month,
		Status:  StatementDraft,
	}

	// Per-trip compensation.
	distanceComp := decimal.Zero
	waitingComp := decimal.Zero
	cashDeductions := decimal.Zero
	for _, trip := range inputs.trips {
		base, err := e.resolver.ResolveBase(ctx, period.Year, trip.TotalDistanceKm)
		if err != nil {
			return nil, &ComputeError{OwnerID: owner, Year: period.Year, Month: period.Month, Input: "tariff", Err: err}
		}
		breakdown := ComputeTrip(trip, base, config)
		if breakdown.BaseAmount.IsZero() && trip.TotalDistanceKm <= tariff.TieredCeilingKm {
			st.Warnings = append(st.Warnings,
				fmt.Sprintf("trip %s: no tier for %d km, distance compensation is zero", trip.ID, trip.TotalDistanceKm))
		}
		st.Trips = append(st.Trips, breakdown)
		distanceComp = distanceComp.Add(breakdown.DistanceComp)
		waitingComp = waitingComp.Add(breakdown.WaitingComp)
		cashDeductions = cashDeductions.Add(breakdown.CashDeduction)
	}

	// Approved expenses.
	expenses := decimal.Zero
	for _, claim := range inputs.claims {
		expenses = expenses.Add(claim.Amount)
	}

	// Treasury movements. Both kinds reduce the payout.
	withdrawals := decimal.Zero
	collections := decimal.Zero
	for _, mv := range inputs.movements {
		switch mv.Kind {
		case MovementWithdrawal:
			withdrawals = withdrawals.Add(mv.Amount)
		case MovementCollection:
			collections = collections.Add(mv.Amount)
		default:
			st.Warnings = append(st.Warnings,
				fmt.Sprintf("treasury movement %s: unknown kind %q ignored", mv.ID, mv.Kind))
		}
	}

	// Signed carry-over from the prior month.
	carry := decimal.Zero
	if inputs.prior != nil {
		carry = inputs.prior.NetAmount
	}

	st.DistanceComp = distanceComp
	st.WaitingComp = waitingComp
	st.ExpenseAdditions = expenses
	st.CarryOver = carry
	st.CashDeductions = cashDeductions
	st.Withdrawals = withdrawals
	st.Collections = collections

	positiveCarry := decimal.Max(carry, decimal.Zero)
	negativeCarry := decimal.Max(carry.Neg(), decimal.Zero)

	st.TotalAdditions = distanceComp.Add(waitingComp).Add(expenses).Add(positiveCarry)
	st.TotalDeductions = withdrawals.Add(collections).Add(cashDeductions).Add(negativeCarry)
	st.NetAmount = st.TotalAdditions.Sub(st.TotalDeductions)
	st.ComputedAt = e.now().UTC()

	return st, nil
}

// fetchInputs loads the four independent inputs concurrently.
func (e *Engine) fetchInputs(ctx context.Context, owner EmployeeID, period Month) (monthInputs, error) {
	from, to := period.Bounds()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		inputs monthInputs
		first  error
	)

	fail := func(input string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if first == nil {
			first = &ComputeError{OwnerID: owner, Year: period.Year, Month: period.Month, Input: input, Err: err}
		}
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		trips, err := e.sources.Trips.ListFinalizedTrips(ctx, owner, from, to)
		if err != nil {
			fail("trips", err)
			return
		}
		inputs.trips = trips
	}()
	go func() {
		defer wg.Done()
		claims, err := e.sources.Expenses.ListApprovedClaims(ctx, owner, from, to)
		if err != nil {
			fail("expenses", err)
			return
		}
		inputs.claims = claims
	}()
	go func() {
		defer wg.Done()
		movements, err := e.sources.Treasury.ListMovements(ctx, owner, from, to)
		if err != nil {
			fail("treasury", err)
			return
		}
		inputs.movements = movements
	}()
	go func() {
		defer wg.Done()
		if e.statements == nil {
			return
		}
		prior, err := e.statements.GetStatement(ctx, owner, period.Previous())
		if err != nil {
			fail("carry-over", err)
			return
		}
		inputs.prior = prior
	}()
	wg.Wait()

	if first != nil {
		return monthInputs{}, first
	}
	return inputs, nil
}

// MaterializeStatement computes and persists the statement for a period,
// replacing any existing draft for the same (owner, period).
func (e *Engine) MaterializeStatement(ctx context.Context, owner EmployeeID, period Month) (*Statement, error) {
	st, err := e.ComputeStatement(ctx, owner, period)
	if err != nil {
		return nil, err
	}
	if err := e.statements.SaveStatement(ctx, *st); err != nil {
		return nil, err
	}
	return st, nil
}

// =============================================================================
// PAYROLL RUN - Whole-company month
// =============================================================================

// RunResult reports one driver's outcome within a payroll run.
type RunResult struct {
	OwnerID   EmployeeID
	Statement *Statement
	Err       error
}

// RunMonth computes and materializes a statement for every employee in the
// directory. One failing employee does not stop the run; each result
// carries its own error.
func (e *Engine) RunMonth(ctx context.Context, period Month) ([]RunResult, error) {
	employees, err := e.sources.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RunResult, 0, len(employees))
	for _, emp := range employees {
		st, err := e.MaterializeStatement(ctx, emp.ID, period)
		results = append(results, RunResult{OwnerID: emp.ID, Statement: st, Err: err})
	}
	return results, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// ConfirmStatement moves a draft statement to confirmed, recording the
// actor and time.
func (e *Engine) ConfirmStatement(ctx context.Context, owner EmployeeID, period Month, actor string) (*Statement, error) {
	st, err := e.statements.GetStatement(ctx, owner, period)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrStatementNotFound, owner, period)
	}
	if st.Status != StatementDraft {
		return nil, fmt.Errorf("%w: %s is %s", ErrStatementNotDraft, st.ID, st.Status)
	}

	now := e.now().UTC()
	if err := e.statements.UpdateStatementStatus(ctx, st.ID, StatementConfirmed, actor, now); err != nil {
		return nil, err
	}
	st.Status = StatementConfirmed
	st.ConfirmedBy = actor
	st.ConfirmedAt = &now
	return st, nil
}

// MarkStatementPaid moves a confirmed statement to paid.
func (e *Engine) MarkStatementPaid(ctx context.Context, owner EmployeeID, period Month, actor string) (*Statement, error) {
	st, err := e.statements.GetStatement(ctx, owner, period)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrStatementNotFound, owner, period)
	}
	if st.Status != StatementConfirmed {
		return nil, fmt.Errorf("%w: %s is %s", ErrStatementNotConfirmed, st.ID, st.Status)
	}

	now := e.now().UTC()
	if err := e.statements.UpdateStatementStatus(ctx, st.ID, StatementPaid, actor, now); err != nil {
		return nil, err
	}
	st.Status = StatementPaid
	return st, nil
}

// =============================================================================
// SIMULATION - "what would this trip earn"
// =============================================================================

// Simulation is the preview breakdown for a hypothetical trip. There is no
// real trip, so there is no cash deduction.
type Simulation struct {
	Year         int
	DistanceKm   int
	WaitingHours decimal.Decimal
	BaseAmount   decimal.Decimal
	DistanceComp decimal.Decimal
	WaitingComp  decimal.Decimal
	Total        decimal.Decimal
}

// Simulate previews what a trip of the given distance and waiting time
// would earn under a year's tariff. Read-only: it goes through the exact
// same resolver and calculator as real statements and writes nothing.
func (e *Engine) Simulate(ctx context.Context, year, distanceKm int, waitingHours decimal.Decimal) (*Simulation, error) {
	config, err := e.tariffs.GetConfig(ctx, year)
	if err != nil {
		return nil, err
	}
	base, err := e.resolver.ResolveBase(ctx, year, distanceKm)
	if err != nil {
		return nil, err
	}

	breakdown := ComputeTrip(Trip{
		TotalDistanceKm: distanceKm,
		WaitingHours:    waitingHours,
		PaymentMethod:   PaymentCard, // anything non-cash: a preview has nothing collected
	}, base, config)

	return &Simulation{
		Year:         year,
		DistanceKm:   distanceKm,
		WaitingHours: waitingHours,
		BaseAmount:   base,
		DistanceComp: breakdown.DistanceComp,
		WaitingComp:  breakdown.WaitingComp,
		Total:        breakdown.DistanceComp.Add(breakdown.WaitingComp),
	}, nil
}
