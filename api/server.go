/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests from the dashboard front end

ROUTE GROUPS:
  /api/health, /api/segments, /api/dashboard   Reads
  /api/charts/*                                PNG charts
  /api/refresh, /api/admin/*                   Cache and data maintenance

SECURITY NOTE:
  No authentication middleware. Put the admin routes behind the same proxy
  auth as the dashboard itself.

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/segments", h.ListSegments)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/charts/{granularity}.png", h.GetChartPNG)
		r.Post("/refresh", h.Refresh)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/import", h.Import)
		})
	})

	return r
}
