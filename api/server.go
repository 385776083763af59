/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/leave/*          Requests, balances, allocations, leave types
  /api/holidays/*       Holiday administration
  /api/company-leaves/* Company-leave rules
  /api/shifts/*         Shift schedules and assignment
  /api/attendance/*     Clock punches and daily metrics

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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

	r.Route("/api", func(r chi.Router) {
		// Leave routes
		r.Route("/leave", func(r chi.Router) {
			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.SubmitRequest)
				r.Get("/{id}", h.GetRequest)
				r.Post("/{id}/approve", h.ApproveRequest)
				r.Post("/{id}/cancel", h.CancelRequest)
			})
			r.Get("/balance", h.GetBalance)
			r.Post("/allocations", h.CreateAllocation)
			r.Route("/types", func(r chi.Router) {
				r.Get("/", h.ListLeaveTypes)
				r.Post("/", h.CreateLeaveType)
			})
		})

		// Calendar routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})
		r.Route("/company-leaves", func(r chi.Router) {
			r.Get("/", h.ListCompanyLeaves)
			r.Post("/", h.CreateCompanyLeave)
			r.Delete("/{id}", h.DeleteCompanyLeave)
		})

		// Attendance routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Post("/{id}/assign", h.AssignShift)
		})
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.Get("/metrics", h.GetMetrics)
		})
	})

	return r
}
