package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Protocol catalogue
		r.Route("/protocols", func(r chi.Router) {
			r.Get("/", s.handleListProtocols)
			r.Get("/stats", s.handleProtocolStats)

			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", s.handleGetProtocol)
				r.Get("/schema", s.handleGetSchema)
				r.Get("/defaults", s.handleGetDefaults)
				r.Get("/capabilities", s.handleGetCapabilities)

				// Configuration validation
				r.Post("/validate", s.handleValidate)
				r.Post("/defaults", s.handleApplyDefaults)

				// Connection testing
				r.Post("/test", s.handleTest)
				r.Post("/test/quick", s.handleQuickTest)
				r.Post("/test/ping", s.handlePingTest)
				r.Post("/test/stats", s.handleConnectionStats)
				r.Post("/discover", s.handleDiscover)
			})
		})

		// Cross-protocol batch testing
		r.Post("/tests/batch", s.handleBatchTest)
	})

	return r
}

// handleHealth returns the server health status, including catalogue
// store reachability when a store is configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"version":   s.version,
		"protocols": s.registry.Count(),
	}
	if s.store != nil {
		if err := s.store.HealthCheck(r.Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
		} else {
			body["database"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}
