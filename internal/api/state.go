package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/deckstate-core/internal/bridges/stagelinq"
	"github.com/nerrad567/deckstate-core/internal/deckstate"
)

// handleGetState returns the full state snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleGetDeck returns one deck by its number (1-4).
func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeBadRequest(w, "deck must be a number")
		return
	}

	deck, ok := s.store.Snapshot().Deck(n)
	if !ok {
		writeNotFound(w, "deck not found")
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// handleGetMixer returns the mixer fader positions.
func (s *Server) handleGetMixer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Mixer)
}

// handleGetDevice returns the connected unit's description and phase.
func (s *Server) handleGetDevice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Device)
}

// applyResponse reports whether an ingested update was recognised and applied.
type applyResponse struct {
	Applied bool `json:"applied"`
}

// handleIngestState applies a single path/value state change.
// The body uses the same format as the adapter's MQTT state messages.
func (s *Server) handleIngestState(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	msg, err := stagelinq.DecodeStateMessage(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	applied, err := s.store.ApplyStateChange(r.Context(), msg.Path, msg.Value)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{Applied: applied})
}

// handleIngestStatus merges a player-status update.
func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	status, err := stagelinq.DecodeStatusMessage(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	applied, err := s.store.ApplyPlayerStatus(r.Context(), status)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{Applied: applied})
}

// handleResetState returns every deck, the mixer and the device to defaults.
func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	claims := claimsFromContext(r.Context())
	if claims != nil {
		s.logger.Info("state reset", "operator", claims.Subject)
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// readBody reads the request body, writing a 400 on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	return body, true
}

// writeStoreError maps store errors to HTTP responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, deckstate.ErrStoreStopped):
		writeUnavailable(w, "state store is not running")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeUnavailable(w, "request cancelled")
	default:
		s.logger.Error("store apply failed",
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "failed to apply update")
	}
}
