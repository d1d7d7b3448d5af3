/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Tariff CSV import (success and row-error report)
- Statement compute endpoint (success and unknown driver)
- Simulation endpoint
- Tariff year cloning conflicts
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(NewRouter(NewHandler(store)))
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// TARIFF IMPORT
// =============================================================================

func TestImportTiers_Valid(t *testing.T) {
	server, store := newTestServer(t)

	csv := "km,importo_base\n12,10.00\n15,20.00\n"
	resp, err := http.Post(server.URL+"/api/tariffs/2026/import", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ImportResultDTO
	decodeBody(t, resp, &result)
	assert.Equal(t, 2026, result.Year)
	assert.Equal(t, 2, result.Imported)

	tiers, err := store.GetTiers(context.Background(), 2026)
	require.NoError(t, err)
	assert.Len(t, tiers, 2)
}

func TestImportTiers_RowErrorsReported(t *testing.T) {
	server, store := newTestServer(t)

	csv := "km,importo_base\nabc,10.00\n15,20.00\n15,21.00\n"
	resp, err := http.Post(server.URL+"/api/tariffs/2026/import", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var result ImportResultDTO
	decodeBody(t, resp, &result)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 4, result.Errors[1].Line)

	// Nothing was applied.
	tiers, err := store.GetTiers(context.Background(), 2026)
	require.NoError(t, err)
	assert.Empty(t, tiers)
}

func TestGetTariff_ReturnsConfigAndLadder(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2026, 15, decimal.RequireFromString("20.00")))

	resp, err := http.Get(server.URL + "/api/tariffs/2026")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto TariffDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, "1.17", dto.Config.AdjustmentCoefficient) // defaults, nothing stored
	require.Len(t, dto.Tiers, 1)
	assert.Equal(t, 15, dto.Tiers[0].Km)
	assert.Equal(t, "20", dto.Tiers[0].BaseAmount)
}

func TestCloneTariffYear_Conflict(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2025, 15, decimal.RequireFromString("20.00")))
	require.NoError(t, store.UpsertTier(ctx, 2026, 15, decimal.RequireFromString("21.00")))

	resp := postJSON(t, server.URL+"/api/tariffs/2026/clone", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDownloadTemplate(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/tariffs/template")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
}

// =============================================================================
// STATEMENTS
// =============================================================================

func TestComputeStatement_EndToEnd(t *testing.T) {
	// GIVEN: A driver with one 14 km / 2h card trip and a 15 km tier of 20.00
	// WHEN: POSTing a compute request
	// THEN: The statement nets 53.40 with the full breakdown

	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{
		ID: "drv-1", Name: "Mario Rossi",
		HiredAt: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.UpsertTier(ctx, 2026, 15, decimal.RequireFromString("20.00")))
	require.NoError(t, store.SaveTrip(ctx, payroll.Trip{
		ID:              "trip-1",
		AssigneeID:      "drv-1",
		Date:            time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		TotalDistanceKm: 14,
		WaitingHours:    decimal.RequireFromString("2"),
		PaymentMethod:   payroll.PaymentCard,
		AmountCollected: decimal.Zero,
		Status:          payroll.TripStatusCompleted,
	}))

	resp := postJSON(t, server.URL+"/api/statements/compute", ComputeStatementRequest{
		OwnerID: "drv-1", Year: 2026, Month: 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto StatementDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, "drv-1", dto.OwnerID)
	assert.Equal(t, "23.4", dto.DistanceComp)
	assert.Equal(t, "30", dto.WaitingComp)
	assert.Equal(t, "53.4", dto.NetAmount)
	require.Len(t, dto.Trips, 1)
	assert.Equal(t, "trip-1", dto.Trips[0].TripID)
}

func TestComputeStatement_UnknownDriver_404(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/statements/compute", ComputeStatementRequest{
		OwnerID: "drv-ghost", Year: 2026, Month: 3,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComputeStatement_InvalidPeriod_400(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/statements/compute", ComputeStatementRequest{
		OwnerID: "drv-1", Year: 2026, Month: 13,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmStatement_BeforeMaterialize_404(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{
		ID: "drv-1", Name: "Mario Rossi",
		HiredAt: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	}))

	resp := postJSON(t, server.URL+"/api/statements/confirm", ConfirmStatementRequest{
		OwnerID: "drv-1", Year: 2026, Month: 3, Actor: "backoffice",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SIMULATION
// =============================================================================

func TestSimulate(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTier(ctx, 2026, 15, decimal.RequireFromString("20.00")))

	resp := postJSON(t, server.URL+"/api/simulate", SimulateRequest{
		Year: 2026, DistanceKm: 14, WaitingHours: "2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto SimulationDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, "20", dto.BaseAmount)
	assert.Equal(t, "23.4", dto.DistanceComp)
	assert.Equal(t, "30", dto.WaitingComp)
	assert.Equal(t, "53.4", dto.Total)
}
