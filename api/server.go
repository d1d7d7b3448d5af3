/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tariffs/*     Tariff configuration and tier ladders
  /api/employees/*   Driver directory and stored statements
  /api/statements/*  Statement compute and lifecycle
  /api/payroll/*     Whole-company monthly runs
  /api/simulate      Trip preview
  /api/demo, /api/reset  Demo data (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tariff routes
		r.Route("/tariffs", func(r chi.Router) {
			r.Get("/template", h.DownloadTemplate)
			r.Get("/{year}", h.GetTariff)
			r.Put("/{year}/config", h.SaveConfig)
			r.Put("/{year}/tiers", h.ReplaceTiers)
			r.Post("/{year}/tiers", h.UpsertTier)
			r.Post("/{year}/import", h.ImportTiers)
			r.Post("/{year}/clone", h.CloneTariffYear)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/statements", h.ListStatements)
		})

		// Statement routes
		r.Route("/statements", func(r chi.Router) {
			r.Post("/compute", h.ComputeStatement)
			r.Post("/confirm", h.ConfirmStatement)
			r.Post("/pay", h.PayStatement)
		})

		// Payroll run routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/run", h.RunMonth)
		})

		// Simulation routes
		r.Post("/simulate", h.Simulate)

		// Demo routes
		r.Post("/demo/load", h.LoadDemo)
		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Payroll Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payroll Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/employees">/api/employees</a> - List drivers</li>
<li><a href="/api/tariffs/template">/api/tariffs/template</a> - Tariff import template</li>
<li>POST /api/statements/compute - Compute a monthly statement</li>
<li>POST /api/payroll/run - Run a whole month</li>
<li>POST /api/simulate - Preview a trip</li>
</ul>
</body>
</html>`))
	})

	return r
}
