// Package memory provides in-memory implementations of every storage
// interface (for testing/dev). Semantics mirror store/sqlite, including
// the all-or-nothing tier operations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// STORE
// =============================================================================

type tierKey struct {
	Year int
	Km   int
}

type statementKey struct {
	Owner payroll.EmployeeID
	Year  int
	Month time.Month
}

// Store holds all records in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	configs   map[int]tariff.Config
	tiers     map[tierKey]decimal.Decimal
	employees map[payroll.EmployeeID]payroll.Employee
	trips     []payroll.Trip
	claims    []payroll.ExpenseClaim
	movements []payroll.TreasuryMovement

	statements map[statementKey]payroll.Statement
	byID       map[string]statementKey
}

func New() *Store {
	return &Store{
		configs:    make(map[int]tariff.Config),
		tiers:      make(map[tierKey]decimal.Decimal),
		employees:  make(map[payroll.EmployeeID]payroll.Employee),
		statements: make(map[statementKey]payroll.Statement),
		byID:       make(map[string]statementKey),
	}
}

// Interface checks.
var (
	_ tariff.Store              = (*Store)(nil)
	_ payroll.TripSource        = (*Store)(nil)
	_ payroll.ExpenseSource     = (*Store)(nil)
	_ payroll.TreasurySource    = (*Store)(nil)
	_ payroll.EmployeeDirectory = (*Store)(nil)
	_ payroll.StatementStore    = (*Store)(nil)
)

// =============================================================================
// TARIFF STORE
// =============================================================================

func (s *Store) GetConfig(_ context.Context, year int) (tariff.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.configs[year]; ok {
		return c, nil
	}
	return tariff.Defaults(year), nil
}

func (s *Store) SaveConfig(_ context.Context, config tariff.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[config.Year] = config
	return nil
}

func (s *Store) GetTiers(_ context.Context, year int) ([]tariff.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tiersLocked(year), nil
}

func (s *Store) tiersLocked(year int) []tariff.Tier {
	var tiers []tariff.Tier
	for k, amount := range s.tiers {
		if k.Year == year {
			tiers = append(tiers, tariff.Tier{Year: year, Km: k.Km, BaseAmount: amount})
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Km < tiers[j].Km })
	return tiers
}

func (s *Store) ReplaceTiers(_ context.Context, year int, entries []tariff.TierEntry) error {
	// Validate before touching anything, so a bad batch leaves the year
	// exactly as it was.
	if err := tariff.ValidateEntries(year, entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.tiers {
		if k.Year == year {
			delete(s.tiers, k)
		}
	}
	for _, e := range entries {
		s.tiers[tierKey{Year: year, Km: e.Km}] = e.BaseAmount
	}
	return nil
}

func (s *Store) UpsertTier(_ context.Context, year, km int, baseAmount decimal.Decimal) error {
	if err := tariff.ValidateEntries(year, []tariff.TierEntry{{Km: km, BaseAmount: baseAmount}}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tiers[tierKey{Year: year, Km: km}] = baseAmount
	return nil
}

func (s *Store) CloneFromPreviousYear(_ context.Context, targetYear int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tiersLocked(targetYear)) > 0 {
		return tariff.ErrYearNotEmpty
	}
	source := s.tiersLocked(targetYear - 1)
	if len(source) == 0 {
		return tariff.ErrSourceYearEmpty
	}
	for _, t := range source {
		s.tiers[tierKey{Year: targetYear, Km: t.Km}] = t.BaseAmount
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if emp, ok := s.employees[id]; ok {
		return &emp, nil
	}
	return nil, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]payroll.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		employees = append(employees, emp)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

// =============================================================================
// UPSTREAM RECORDS
// =============================================================================

func (s *Store) SaveTrip(_ context.Context, t payroll.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trips = append(s.trips, t)
	return nil
}

func (s *Store) ListFinalizedTrips(_ context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payroll.Trip
	for _, t := range s.trips {
		if t.AssigneeID == owner && t.Status.IsFinalized() && inWindow(t.Date, from, to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) SaveExpenseClaim(_ context.Context, c payroll.ExpenseClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.claims = append(s.claims, c)
	return nil
}

func (s *Store) ListApprovedClaims(_ context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.ExpenseClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payroll.ExpenseClaim
	for _, c := range s.claims {
		if c.OwnerID == owner && c.Status == payroll.ClaimStatusApproved && inWindow(c.Date, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) SaveMovement(_ context.Context, m payroll.TreasuryMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.movements = append(s.movements, m)
	return nil
}

func (s *Store) ListMovements(_ context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.TreasuryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payroll.TreasuryMovement
	for _, m := range s.movements {
		if m.OwnerID == owner && inWindow(m.Date, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

// =============================================================================
// STATEMENTS
// =============================================================================

func (s *Store) SaveStatement(_ context.Context, st payroll.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := statementKey{Owner: st.OwnerID, Year: st.Year, Month: st.Month}
	if old, ok := s.statements[k]; ok {
		delete(s.byID, old.ID)
	}
	s.statements[k] = st
	s.byID[st.ID] = k
	return nil
}

func (s *Store) GetStatement(_ context.Context, owner payroll.EmployeeID, period payroll.Month) (*payroll.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.statements[statementKey{Owner: owner, Year: period.Year, Month: period.Month}]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *Store) ListStatements(_ context.Context, owner payroll.EmployeeID) ([]payroll.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payroll.Statement
	for _, st := range s.statements {
		if st.OwnerID == owner {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (s *Store) UpdateStatementStatus(_ context.Context, id string, status payroll.StatementStatus, actor string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byID[id]
	if !ok {
		return payroll.ErrStatementNotFound
	}
	st := s.statements[k]
	st.Status = status
	if status == payroll.StatementConfirmed {
		st.ConfirmedBy = actor
		st.ConfirmedAt = &at
	}
	s.statements[k] = st
	return nil
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
