package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/deckstate-core/internal/deckstate"
	"github.com/nerrad567/deckstate-core/internal/history"
)

// handleListHistory returns recent track loads, newest first.
//
// Query parameters:
//   - limit: maximum rows (default 50, capped at 200)
//   - deck: restrict to one deck (1-4)
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "track history is disabled")
		return
	}

	var opts history.ListOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("deck"); v != "" {
		deck, err := strconv.Atoi(v)
		if err != nil || deck < 1 || deck > deckstate.DeckCount {
			writeBadRequest(w, "deck must be between 1 and 4")
			return
		}
		opts.Deck = deck
	}

	loads, err := s.history.List(r.Context(), opts)
	if err != nil {
		s.logger.Error("failed to list track history", "error", err)
		writeInternalError(w, "failed to list track history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": loads,
		"count":   len(loads),
	})
}
