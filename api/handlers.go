/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the tariff store and the statement engine via REST. Handles
  HTTP request/response, JSON serialization, and delegates to domain
  logic.

ENDPOINTS:
  Tariffs:
    GET    /api/tariffs/template          CSV import template
    GET    /api/tariffs/{year}            Config + tier ladder for a year
    PUT    /api/tariffs/{year}/config     Update the year's parameters
    PUT    /api/tariffs/{year}/tiers      Bulk replace (JSON)
    POST   /api/tariffs/{year}/tiers      Upsert a single tier
    POST   /api/tariffs/{year}/import     Bulk replace from CSV upload
    POST   /api/tariffs/{year}/clone      Copy the previous year's ladder

  Employees:
    GET    /api/employees                 List drivers
    POST   /api/employees                 Create a driver
    GET    /api/employees/{id}/statements Stored statements, newest first

  Statements:
    POST   /api/statements/compute        Compute one driver's month
    POST   /api/statements/confirm        Draft -> confirmed
    POST   /api/statements/pay            Confirmed -> paid
    POST   /api/payroll/run               Whole-company monthly run

  Simulation:
    POST   /api/simulate                  Preview a hypothetical trip

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation errors, malformed imports
  - 404: unknown employee, missing statement
  - 409: lifecycle conflicts (confirming a paid statement, clone into a
         populated year)
  - 500: storage failures

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tariff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine
}

// NewHandler creates a handler over the given store, wiring the engine to
// the store's interfaces.
func NewHandler(store *sqlite.Store) *Handler {
	engine := payroll.NewEngine(store, payroll.Sources{
		Trips:     store,
		Expenses:  store,
		Treasury:  store,
		Employees: store,
	}, store)
	return &Handler{Store: store, Engine: engine}
}

// =============================================================================
// TARIFF HANDLERS
// =============================================================================

// GetTariff returns config + tier ladder for a year.
// GET /api/tariffs/{year}
func (h *Handler) GetTariff(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	config, err := h.Store.GetConfig(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tariff config", err)
		return
	}
	tiers, err := h.Store.GetTiers(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tiers", err)
		return
	}

	writeJSON(w, http.StatusOK, TariffDTO{Config: toConfigDTO(config), Tiers: toTierDTOs(tiers)})
}

// SaveConfig updates a year's global parameters.
// PUT /api/tariffs/{year}/config
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	var req SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	config := tariff.Config{Year: year}
	var err error
	if config.AdjustmentCoefficient, err = parseDecimalField(req.AdjustmentCoefficient, "adjustment_coefficient"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err)
		return
	}
	if config.HourlyWaitingRate, err = parseDecimalField(req.HourlyWaitingRate, "hourly_waiting_rate"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err)
		return
	}
	if config.OverageRatePerKm, err = parseDecimalField(req.OverageRatePerKm, "overage_rate_per_km"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err)
		return
	}

	if err := h.Store.SaveConfig(r.Context(), config); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save config", err)
		return
	}

	writeJSON(w, http.StatusOK, toConfigDTO(config))
}

// ReplaceTiers bulk-replaces a year's ladder from a JSON body.
// PUT /api/tariffs/{year}/tiers
func (h *Handler) ReplaceTiers(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	var req ReplaceTiersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entries := make([]tariff.TierEntry, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		amount, err := parseDecimalField(t.BaseAmount, "base_amount")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tier", err)
			return
		}
		entries = append(entries, tariff.TierEntry{Km: t.Km, BaseAmount: amount})
	}

	if err := h.Store.ReplaceTiers(r.Context(), year, entries); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tariff.ErrDuplicateKm) || errors.Is(err, tariff.ErrInvalidTier) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to replace tiers", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"year": year, "tiers": len(entries)})
}

// UpsertTier edits a single tier row.
// POST /api/tariffs/{year}/tiers
func (h *Handler) UpsertTier(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	var req UpsertTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseDecimalField(req.BaseAmount, "base_amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tier", err)
		return
	}

	if err := h.Store.UpsertTier(r.Context(), year, req.Km, amount); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tariff.ErrInvalidTier) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to upsert tier", err)
		return
	}

	writeJSON(w, http.StatusOK, TierDTO{Km: req.Km, BaseAmount: amount.String()})
}

// ImportTiers bulk-replaces a year's ladder from an uploaded CSV.
// POST /api/tariffs/{year}/import
func (h *Handler) ImportTiers(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	entries, err := tariff.ParseTiersCSV(r.Body)
	if err != nil {
		var importErr *tariff.ImportError
		if errors.As(err, &importErr) {
			writeJSON(w, http.StatusBadRequest, ImportResultDTO{Year: year, Errors: importErr.Rows})
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse CSV", err)
		return
	}

	if err := h.Store.ReplaceTiers(r.Context(), year, entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to apply import", err)
		return
	}

	slog.Info("tier import applied", "year", year, "tiers", len(entries))
	writeJSON(w, http.StatusOK, ImportResultDTO{Year: year, Imported: len(entries)})
}

// CloneTariffYear copies the previous year's ladder into a fresh year.
// POST /api/tariffs/{year}/clone
func (h *Handler) CloneTariffYear(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	if err := h.Store.CloneFromPreviousYear(r.Context(), year); err != nil {
		switch {
		case errors.Is(err, tariff.ErrYearNotEmpty):
			writeError(w, http.StatusConflict, "Target year already has tiers", err)
		case errors.Is(err, tariff.ErrSourceYearEmpty):
			writeError(w, http.StatusNotFound, "Previous year has no tiers", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to clone year", err)
		}
		return
	}

	tiers, err := h.Store.GetTiers(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read cloned tiers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "tiers": len(tiers)})
}

// DownloadTemplate serves the CSV import template.
// GET /api/tariffs/template
func (h *Handler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tariff_template.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(tariff.TemplateCSV()))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all drivers.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{
			ID:      string(e.ID),
			Name:    e.Name,
			HiredAt: e.HiredAt.Format("2006-01-02"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a driver record.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hiredAt, err := time.Parse("2006-01-02", req.HiredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hired_at format (use YYYY-MM-DD)", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	emp := payroll.Employee{ID: payroll.EmployeeID(id), Name: req.Name, HiredAt: hiredAt}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, EmployeeDTO{
		ID:      id,
		Name:    emp.Name,
		HiredAt: emp.HiredAt.Format("2006-01-02"),
	})
}

// ListStatements returns stored statements for a driver.
// GET /api/employees/{id}/statements
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	owner := payroll.EmployeeID(chi.URLParam(r, "id"))

	statements, err := h.Store.ListStatements(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statements", err)
		return
	}

	dtos := make([]*StatementDTO, len(statements))
	for i := range statements {
		dtos[i] = toStatementDTO(&statements[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// ComputeStatement computes (and optionally persists) one driver's month.
// POST /api/statements/compute
func (h *Handler) ComputeStatement(w http.ResponseWriter, r *http.Request) {
	var req ComputeStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, ok := periodFromRequest(w, req.Year, req.Month)
	if !ok {
		return
	}

	owner := payroll.EmployeeID(req.OwnerID)
	var (
		st  *payroll.Statement
		err error
	)
	if req.Persist {
		st, err = h.Engine.MaterializeStatement(r.Context(), owner, period)
	} else {
		st, err = h.Engine.ComputeStatement(r.Context(), owner, period)
	}
	if err != nil {
		writeStatementError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// ConfirmStatement moves a draft statement to confirmed.
// POST /api/statements/confirm
func (h *Handler) ConfirmStatement(w http.ResponseWriter, r *http.Request) {
	var req ConfirmStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, ok := periodFromRequest(w, req.Year, req.Month)
	if !ok {
		return
	}

	st, err := h.Engine.ConfirmStatement(r.Context(), payroll.EmployeeID(req.OwnerID), period, req.Actor)
	if err != nil {
		writeStatementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// PayStatement moves a confirmed statement to paid.
// POST /api/statements/pay
func (h *Handler) PayStatement(w http.ResponseWriter, r *http.Request) {
	var req ConfirmStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, ok := periodFromRequest(w, req.Year, req.Month)
	if !ok {
		return
	}

	st, err := h.Engine.MarkStatementPaid(r.Context(), payroll.EmployeeID(req.OwnerID), period, req.Actor)
	if err != nil {
		writeStatementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// RunMonth computes and materializes statements for every driver.
// POST /api/payroll/run
func (h *Handler) RunMonth(w http.ResponseWriter, r *http.Request) {
	var req RunMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, ok := periodFromRequest(w, req.Year, req.Month)
	if !ok {
		return
	}

	results, err := h.Engine.RunMonth(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Payroll run failed", err)
		return
	}

	dtos := make([]RunResultDTO, len(results))
	failed := 0
	for i, res := range results {
		dto := RunResultDTO{OwnerID: string(res.OwnerID)}
		if res.Err != nil {
			dto.Error = res.Err.Error()
			failed++
		} else {
			dto.Statement = toStatementDTO(res.Statement)
		}
		dtos[i] = dto
	}

	slog.Info("payroll run completed",
		"period", period.String(), "drivers", len(results), "failed", failed)
	writeJSON(w, http.StatusOK, map[string]any{"period": period.String(), "results": dtos})
}

// =============================================================================
// SIMULATION HANDLER
// =============================================================================

// Simulate previews what a hypothetical trip would earn.
// POST /api/simulate
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 || req.DistanceKm < 0 {
		writeError(w, http.StatusBadRequest, "year and a non-negative distance_km are required", nil)
		return
	}

	waiting, err := parseDecimalField(orZero(req.WaitingHours), "waiting_hours")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid waiting_hours", err)
		return
	}

	sim, err := h.Engine.Simulate(r.Context(), req.Year, req.DistanceKm, waiting)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Simulation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationDTO(sim))
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

func periodFromRequest(w http.ResponseWriter, year, month int) (payroll.Month, bool) {
	if year < 1900 || year > 9999 || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid period: year and month (1-12) are required", nil)
		return payroll.Month{}, false
	}
	return payroll.NewMonth(year, time.Month(month)), true
}

func writeStatementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payroll.ErrEmployeeNotFound), errors.Is(err, payroll.ErrStatementNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case payroll.IsClientError(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to compute statement", err)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
