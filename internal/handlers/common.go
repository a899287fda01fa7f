package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/models"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/lehigh-university-libraries/pairwise/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	source       *images.DirSource
	autosaver    *results.Autosaver
	plan         pairing.Plan
}

// New creates a Handler. Sessions that are deleted or expire are flushed to
// the autosaver's writer.
func New(store *storage.SessionStore, source *images.DirSource, autosaver *results.Autosaver, plan pairing.Plan) *Handler {
	h := &Handler{
		sessionStore: store,
		source:       source,
		autosaver:    autosaver,
		plan:         plan,
	}
	store.OnEvicted(h.flushEntry)
	return h
}

// Routes registers the API and image endpoints
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/api/images", h.HandleImages)
	mux.HandleFunc("/images/", h.HandleImage)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeSessionError maps session errors onto HTTP status codes
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pairing.ErrInvalidInput):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pairing.ErrInvalidState):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Entry, bool) {
	entry, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return entry, true
}

func sessionResponse(entry *storage.Entry, s *pairing.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt,
		Plan:      s.Plan(),
		Status:    s.Status(),
	}
}

func (h *Handler) flushEntry(entry *storage.Entry) {
	if h.autosaver == nil {
		return
	}
	err := entry.With(func(s *pairing.Session) error {
		return h.autosaver.Flush(context.Background(), entry.ID, s.Export())
	})
	if err != nil {
		slog.Error("Failed to save session on close", "session_id", entry.ID, "error", err)
		return
	}
	slog.Info("Session closed", "session_id", entry.ID)
}
