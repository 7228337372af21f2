/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend
  5. Auth:       Bearer JWT on everything under /api except holiday reads

ROUTE GROUPS:
  /health               Liveness and storage ping
  /api/holidays/*       Calendar reads (public)
  /api/timesheets/*     The caller's own months
  /api/admin/*          Review, payment and holiday seeding

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token validation
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins is used when no origins are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Authenticator, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			// Holiday reads
			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.Get("/types", h.ListHolidayTypes)
			})

			// Own timesheets
			r.Route("/timesheets/{year}/{month}", func(r chi.Router) {
				r.Get("/", h.GetMonth)
				r.Put("/", h.SaveEntries)
				r.Post("/submit", h.Submit)
				r.Post("/upload", h.Upload)
				r.Get("/attachment", h.GetAttachment)
				r.Get("/audit", h.GetAudit)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Get("/timesheets", h.ListSummaries)
				r.Get("/timesheets/pending", h.ListPending)
				r.Route("/timesheets/{userId}/{year}/{month}", func(r chi.Router) {
					r.Get("/", h.GetUserMonth)
					r.Get("/audit", h.GetUserAudit)
					r.Get("/attachment", h.GetUserAttachment)
					r.Post("/{event}", h.Transition)
				})
				r.Post("/holidays/defaults", h.AddDefaultHolidays)
			})
		})
	})

	return r
}
