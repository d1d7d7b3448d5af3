/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements tariff.Store plus every payroll source and store
  (TripSource, ExpenseSource, TreasurySource, EmployeeDirectory,
  StatementStore) over one SQLite database. The same patterns apply to
  PostgreSQL with minor dialect changes.

KEY TABLES:
  tariff_configs:     one row per year of global parameters
  distance_tiers:     (year, km) -> base amount, unique per (year, km)
  employees:          driver/partner records
  trips:              service records owned by the dispatch workflow
  expense_claims:     reimbursable expenses owned by the expense workflow
  treasury_movements: withdrawals and collections
  statements:         materialized monthly results, unique per
                      (owner, year, month)

ATOMIC TIER OPERATIONS:
  ReplaceTiers and CloneFromPreviousYear run inside one database
  transaction: delete-then-insert either lands completely or not at all,
  so a statement computation never observes a half-replaced tier table.
  The (year, km) primary key backs this up at the schema level.

MONEY COLUMNS:
  Monetary values and rates are stored as TEXT holding the decimal's
  string form. REAL would reintroduce the float rounding the decimal
  type exists to avoid.

CONCURRENCY:
  sync.RWMutex plus WAL journal mode. Multiple readers, single writer.

USAGE:
  store, err := sqlite.New("./payroll.db")   // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - tariff/store.go, payroll/store.go: interface definitions
  - store/memory/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tariff"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
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

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Per-year global payroll parameters
	CREATE TABLE IF NOT EXISTS tariff_configs (
		year INTEGER PRIMARY KEY,
		adjustment_coefficient TEXT NOT NULL,
		hourly_waiting_rate TEXT NOT NULL,
		overage_rate_per_km TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Distance tier ladder. The (year, km) key backs the atomic replace.
	CREATE TABLE IF NOT EXISTS distance_tiers (
		year INTEGER NOT NULL,
		km INTEGER NOT NULL,
		base_amount TEXT NOT NULL,
		PRIMARY KEY (year, km)
	);

	-- Drivers / partners
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hired_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Service records, written by the dispatch workflow
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		assignee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		total_distance_km INTEGER NOT NULL,
		waiting_hours TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		amount_collected TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: one statement reads one assignee's month
	CREATE INDEX IF NOT EXISTS idx_trips_assignee_date
		ON trips(assignee_id, date);
	CREATE INDEX IF NOT EXISTS idx_trips_status
		ON trips(status);

	-- Expense claims, written by the expense approval workflow
	CREATE TABLE IF NOT EXISTS expense_claims (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expense_claims_owner_date
		ON expense_claims(owner_id, date);

	-- Treasury movements (withdrawals, collections)
	CREATE TABLE IF NOT EXISTS treasury_movements (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_treasury_movements_owner_date
		ON treasury_movements(owner_id, date);

	-- Materialized monthly statements
	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		distance_comp TEXT NOT NULL,
		waiting_comp TEXT NOT NULL,
		expense_additions TEXT NOT NULL,
		carry_over TEXT NOT NULL,
		cash_deductions TEXT NOT NULL,
		withdrawals TEXT NOT NULL,
		collections TEXT NOT NULL,
		total_additions TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		trips_json TEXT,
		warnings_json TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		confirmed_by TEXT,
		confirmed_at TEXT,
		computed_at TEXT NOT NULL,
		UNIQUE(owner_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_statements_owner
		ON statements(owner_id, year DESC, month DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TARIFF STORE (tariff.Store interface)
// =============================================================================

// GetConfig returns the config for a year, or the documented defaults
// when the year has no stored row.
func (s *Store) GetConfig(ctx context.Context, year int) (tariff.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var coefficient, waiting, overage string
	err := s.db.QueryRowContext(ctx,
		"SELECT adjustment_coefficient, hourly_waiting_rate, overage_rate_per_km FROM tariff_configs WHERE year = ?",
		year,
	).Scan(&coefficient, &waiting, &overage)

	if err == sql.ErrNoRows {
		return tariff.Defaults(year), nil
	}
	if err != nil {
		return tariff.Config{}, err
	}

	return tariff.Config{
		Year:                  year,
		AdjustmentCoefficient: tariff.MustDecimal(coefficient),
		HourlyWaitingRate:     tariff.MustDecimal(waiting),
		OverageRatePerKm:      tariff.MustDecimal(overage),
	}, nil
}

// SaveConfig installs or updates the config for config.Year.
func (s *Store) SaveConfig(ctx context.Context, config tariff.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO tariff_configs (year, adjustment_coefficient, hourly_waiting_rate, overage_rate_per_km, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			adjustment_coefficient = excluded.adjustment_coefficient,
			hourly_waiting_rate = excluded.hourly_waiting_rate,
			overage_rate_per_km = excluded.overage_rate_per_km,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		config.Year,
		config.AdjustmentCoefficient.String(),
		config.HourlyWaitingRate.String(),
		config.OverageRatePerKm.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetTiers returns the tiers for a year, ascending by km.
func (s *Store) GetTiers(ctx context.Context, year int) ([]tariff.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT km, base_amount FROM distance_tiers WHERE year = ? ORDER BY km ASC", year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []tariff.Tier
	for rows.Next() {
		var (
			km     int
			amount string
		)
		if err := rows.Scan(&km, &amount); err != nil {
			return nil, err
		}
		tiers = append(tiers, tariff.Tier{Year: year, Km: km, BaseAmount: tariff.MustDecimal(amount)})
	}
	return tiers, rows.Err()
}

// ReplaceTiers atomically replaces the tier table for a year.
func (s *Store) ReplaceTiers(ctx context.Context, year int, entries []tariff.TierEntry) error {
	if err := tariff.ValidateEntries(year, entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM distance_tiers WHERE year = ?", year); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO distance_tiers (year, km, base_amount) VALUES (?, ?, ?)",
			year, e.Km, e.BaseAmount.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpsertTier installs or updates one tier row.
func (s *Store) UpsertTier(ctx context.Context, year, km int, baseAmount decimal.Decimal) error {
	if err := tariff.ValidateEntries(year, []tariff.TierEntry{{Km: km, BaseAmount: baseAmount}}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO distance_tiers (year, km, base_amount)
		VALUES (?, ?, ?)
		ON CONFLICT(year, km) DO UPDATE SET
			base_amount = excluded.base_amount
	`

	_, err := s.db.ExecContext(ctx, query, year, km, baseAmount.String())
	return err
}

// CloneFromPreviousYear copies targetYear-1 tiers into targetYear.
// Refuses to touch a target year that already has tiers.
func (s *Store) CloneFromPreviousYear(ctx context.Context, targetYear int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM distance_tiers WHERE year = ?", targetYear).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return tariff.ErrYearNotEmpty
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO distance_tiers (year, km, base_amount)
		SELECT ?, km, base_amount FROM distance_tiers WHERE year = ?
	`, targetYear, targetYear-1)
	if err != nil {
		return err
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if copied == 0 {
		return tariff.ErrSourceYearEmpty
	}

	return tx.Commit()
}

// =============================================================================
// EMPLOYEES (payroll.EmployeeDirectory interface)
// =============================================================================

// SaveEmployee installs or updates a driver record.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, hired_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hired_at = excluded.hired_at
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name,
		emp.HiredAt.Format(dateLayout),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves a driver record, (nil, nil) when unknown.
func (s *Store) GetEmployee(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		emp                payroll.Employee
		hiredAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, hired_at, created_at FROM employees WHERE id = ?", id,
	).Scan(&emp.ID, &emp.Name, &hiredAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.HiredAt, _ = time.Parse(dateLayout, hiredAt)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns all driver records ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, hired_at, created_at FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var (
			emp                payroll.Employee
			hiredAt, createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &hiredAt, &createdAt); err != nil {
			return nil, err
		}
		emp.HiredAt, _ = time.Parse(dateLayout, hiredAt)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// TRIPS (payroll.TripSource interface)
// =============================================================================

// SaveTrip installs or updates a trip record. Payroll only reads trips;
// this write path exists for the upstream workflow and seeding.
func (s *Store) SaveTrip(ctx context.Context, t payroll.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO trips (id, assignee_id, date, total_distance_km, waiting_hours,
			payment_method, amount_collected, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			assignee_id = excluded.assignee_id,
			date = excluded.date,
			total_distance_km = excluded.total_distance_km,
			waiting_hours = excluded.waiting_hours,
			payment_method = excluded.payment_method,
			amount_collected = excluded.amount_collected,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.AssigneeID, t.Date.Format(dateLayout), t.TotalDistanceKm,
		t.WaitingHours.String(), t.PaymentMethod, t.AmountCollected.String(),
		t.Status, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListFinalizedTrips returns finalized trips for an assignee in [from, to].
func (s *Store) ListFinalizedTrips(ctx context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := make([]string, len(payroll.FinalizedTripStatuses))
	args := []any{owner, from.Format(dateLayout), to.Format(dateLayout)}
	for i, st := range payroll.FinalizedTripStatuses {
		placeholders[i] = "?"
		args = append(args, st)
	}

	query := fmt.Sprintf(`
		SELECT id, assignee_id, date, total_distance_km, waiting_hours,
		       payment_method, amount_collected, status
		FROM trips
		WHERE assignee_id = ? AND date >= ? AND date <= ?
		  AND status IN (%s)
		ORDER BY date ASC, id ASC
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []payroll.Trip
	for rows.Next() {
		var (
			t                        payroll.Trip
			date, waiting, collected string
		)
		if err := rows.Scan(&t.ID, &t.AssigneeID, &date, &t.TotalDistanceKm,
			&waiting, &t.PaymentMethod, &collected, &t.Status); err != nil {
			return nil, err
		}
		t.Date, _ = time.Parse(dateLayout, date)
		t.WaitingHours = tariff.MustDecimal(waiting)
		t.AmountCollected = tariff.MustDecimal(collected)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// =============================================================================
// EXPENSE CLAIMS (payroll.ExpenseSource interface)
// =============================================================================

// SaveExpenseClaim installs or updates an expense claim.
func (s *Store) SaveExpenseClaim(ctx context.Context, c payroll.ExpenseClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO expense_claims (id, owner_id, date, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Date.Format(dateLayout), c.Amount.String(),
		c.Status, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListApprovedClaims returns approved claims for an owner in [from, to].
func (s *Store) ListApprovedClaims(ctx context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.ExpenseClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, owner_id, date, amount, status
		FROM expense_claims
		WHERE owner_id = ? AND date >= ? AND date <= ? AND status = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		owner, from.Format(dateLayout), to.Format(dateLayout), payroll.ClaimStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []payroll.ExpenseClaim
	for rows.Next() {
		var (
			c            payroll.ExpenseClaim
			date, amount string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &date, &amount, &c.Status); err != nil {
			return nil, err
		}
		c.Date, _ = time.Parse(dateLayout, date)
		c.Amount = tariff.MustDecimal(amount)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// =============================================================================
// TREASURY MOVEMENTS (payroll.TreasurySource interface)
// =============================================================================

// SaveMovement installs or updates a treasury movement.
func (s *Store) SaveMovement(ctx context.Context, m payroll.TreasuryMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO treasury_movements (id, owner_id, date, amount, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			kind = excluded.kind
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Date.Format(dateLayout), m.Amount.String(),
		m.Kind, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListMovements returns all movements for an owner in [from, to].
func (s *Store) ListMovements(ctx context.Context, owner payroll.EmployeeID, from, to time.Time) ([]payroll.TreasuryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, owner_id, date, amount, kind
		FROM treasury_movements
		WHERE owner_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		owner, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []payroll.TreasuryMovement
	for rows.Next() {
		var (
			m            payroll.TreasuryMovement
			date, amount string
		)
		if err := rows.Scan(&m.ID, &m.OwnerID, &date, &amount, &m.Kind); err != nil {
			return nil, err
		}
		m.Date, _ = time.Parse(dateLayout, date)
		m.Amount = tariff.MustDecimal(amount)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// =============================================================================
// STATEMENTS (payroll.StatementStore interface)
// =============================================================================

// SaveStatement installs or replaces the statement for its period.
func (s *Store) SaveStatement(ctx context.Context, st payroll.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tripsJSON, _ := json.Marshal(st.Trips)
	warningsJSON, _ := json.Marshal(st.Warnings)

	var confirmedAt *string
	if st.ConfirmedAt != nil {
		v := st.ConfirmedAt.Format(time.RFC3339)
		confirmedAt = &v
	}

	query := `
		INSERT INTO statements (id, owner_id, year, month,
			distance_comp, waiting_comp, expense_additions, carry_over,
			cash_deductions, withdrawals, collections,
			total_additions, total_deductions, net_amount,
			trips_json, warnings_json, status, confirmed_by, confirmed_at, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, year, month) DO UPDATE SET
			id = excluded.id,
			distance_comp = excluded.distance_comp,
			waiting_comp = excluded.waiting_comp,
			expense_additions = excluded.expense_additions,
			carry_over = excluded.carry_over,
			cash_deductions = excluded.cash_deductions,
			withdrawals = excluded.withdrawals,
			collections = excluded.collections,
			total_additions = excluded.total_additions,
			total_deductions = excluded.total_deductions,
			net_amount = excluded.net_amount,
			trips_json = excluded.trips_json,
			warnings_json = excluded.warnings_json,
			status = excluded.status,
			confirmed_by = excluded.confirmed_by,
			confirmed_at = excluded.confirmed_at,
			computed_at = excluded.computed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.OwnerID, st.Year, int(st.Month),
		st.DistanceComp.String(), st.WaitingComp.String(),
		st.ExpenseAdditions.String(), st.CarryOver.String(),
		st.CashDeductions.String(), st.Withdrawals.String(), st.Collections.String(),
		st.TotalAdditions.String(), st.TotalDeductions.String(), st.NetAmount.String(),
		string(tripsJSON), string(warningsJSON),
		st.Status, nullString(st.ConfirmedBy), confirmedAt,
		st.ComputedAt.Format(time.RFC3339),
	)
	return err
}

const statementColumns = `id, owner_id, year, month,
	distance_comp, waiting_comp, expense_additions, carry_over,
	cash_deductions, withdrawals, collections,
	total_additions, total_deductions, net_amount,
	trips_json, warnings_json, status, confirmed_by, confirmed_at, computed_at`

// GetStatement returns the stored statement for a period, (nil, nil) when
// none was materialized.
func (s *Store) GetStatement(ctx context.Context, owner payroll.EmployeeID, period payroll.Month) (*payroll.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+statementColumns+" FROM statements WHERE owner_id = ? AND year = ? AND month = ?",
		owner, period.Year, int(period.Month))

	st, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStatements returns all stored statements for an owner, newest first.
func (s *Store) ListStatements(ctx context.Context, owner payroll.EmployeeID) ([]payroll.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+statementColumns+" FROM statements WHERE owner_id = ? ORDER BY year DESC, month DESC",
		owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []payroll.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, *st)
	}
	return statements, rows.Err()
}

// UpdateStatementStatus moves a statement through its lifecycle.
func (s *Store) UpdateStatementStatus(ctx context.Context, id string, status payroll.StatementStatus, actor string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE statements
		SET status = ?, confirmed_by = ?, confirmed_at = ?
		WHERE id = ?
	`, status, actor, at.Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payroll.ErrStatementNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (*payroll.Statement, error) {
	var (
		st                                              payroll.Statement
		month                                           int
		distance, waiting, expenses, carry              string
		cash, withdrawals, collections                  string
		additions, deductions, net                      string
		tripsJSON, warningsJSON, confirmedBy, confirmed sql.NullString
		computedAt                                      string
	)

	err := row.Scan(&st.ID, &st.OwnerID, &st.Year, &month,
		&distance, &waiting, &expenses, &carry,
		&cash, &withdrawals, &collections,
		&additions, &deductions, &net,
		&tripsJSON, &warningsJSON, &st.Status, &confirmedBy, &confirmed, &computedAt)
	if err != nil {
		return nil, err
	}

	st.Month = time.Month(month)
	st.DistanceComp = tariff.MustDecimal(distance)
	st.WaitingComp = tariff.MustDecimal(waiting)
	st.ExpenseAdditions = tariff.MustDecimal(expenses)
	st.CarryOver = tariff.MustDecimal(carry)
	st.CashDeductions = tariff.MustDecimal(cash)
	st.Withdrawals = tariff.MustDecimal(withdrawals)
	st.Collections = tariff.MustDecimal(collections)
	st.TotalAdditions = tariff.MustDecimal(additions)
	st.TotalDeductions = tariff.MustDecimal(deductions)
	st.NetAmount = tariff.MustDecimal(net)
	st.ConfirmedBy = confirmedBy.String
	if confirmed.Valid && confirmed.String != "" {
		t, _ := time.Parse(time.RFC3339, confirmed.String)
		st.ConfirmedAt = &t
	}
	st.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)

	if tripsJSON.Valid && tripsJSON.String != "" {
		json.Unmarshal([]byte(tripsJSON.String), &st.Trips)
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		json.Unmarshal([]byte(warningsJSON.String), &st.Warnings)
	}

	return &st, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"statements", "treasury_movements", "expense_claims",
		"trips", "employees", "distance_tiers", "tariff_configs",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
