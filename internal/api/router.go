package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/deckstate-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Post("/auth/login", s.handleLogin)

		// State reads
		r.Get("/state", s.handleGetState)
		r.Get("/decks/{n}", s.handleGetDeck)
		r.Get("/mixer", s.handleGetMixer)
		r.Get("/device", s.handleGetDevice)
		r.Get("/history", s.handleListHistory)

		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(s.requirePermission(auth.PermStateIngest)).Post("/ingest/state", s.handleIngestState)
			r.With(s.requirePermission(auth.PermStateIngest)).Post("/ingest/status", s.handleIngestStatus)
			r.With(s.requirePermission(auth.PermStateReset)).Post("/state/reset", s.handleResetState)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
