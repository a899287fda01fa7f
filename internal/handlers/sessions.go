package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/pairwise/internal/models"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/lehigh-university-libraries/pairwise/internal/storage"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		entries := h.sessionStore.GetAll()
		sessionList := make([]models.SessionResponse, 0, len(entries))
		for _, entry := range entries {
			_ = entry.With(func(s *pairing.Session) error {
				sessionList = append(sessionList, sessionResponse(entry, s))
				return nil
			})
		}
		h.writeJSON(w, sessionList)
	case "POST":
		h.createSession(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var request models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	ids, err := h.source.List()
	if err != nil {
		h.writeError(w, "Failed to list images: "+err.Error(), http.StatusInternalServerError)
		return
	}

	session, err := pairing.New(ids, request.Apply(h.plan))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	entry := storage.NewEntry(session)
	h.sessionStore.Set(entry)

	_, target := session.Progress()
	slog.Info("Session created", "session_id", entry.ID, "images", len(ids), "target", target)

	h.writeJSONStatus(w, http.StatusCreated, sessionResponse(entry, session))
}

// HandleSessionDetail serves /api/sessions/{id} and its record, export and
// summary sub-resources
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID, action, _ := strings.Cut(rest, "/")

	entry, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch {
	case action == "" && r.Method == "GET":
		h.showSession(w, entry)
	case action == "" && r.Method == "DELETE":
		h.sessionStore.Delete(entry.ID)
		w.WriteHeader(http.StatusNoContent)
	case action == "record" && r.Method == "POST":
		h.recordOutcome(w, r, entry)
	case action == "export" && r.Method == "GET":
		h.exportSession(w, r, entry)
	case action == "summary" && r.Method == "GET":
		h.summarizeSession(w, entry)
	case action == "" || action == "record" || action == "export" || action == "summary":
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

// showSession returns the session status, drawing the next pair if needed
func (h *Handler) showSession(w http.ResponseWriter, entry *storage.Entry) {
	var response models.SessionResponse
	err := entry.With(func(s *pairing.Session) error {
		if _, err := s.Current(); err != nil && !errors.Is(err, pairing.ErrExhausted) {
			return err
		}
		response = sessionResponse(entry, s)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, response)
}

func (h *Handler) summarizeSession(w http.ResponseWriter, entry *storage.Entry) {
	var summary results.Summary
	err := entry.With(func(s *pairing.Session) error {
		summary = results.Tally(s.Export())
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, summary)
}

func (h *Handler) recordOutcome(w http.ResponseWriter, r *http.Request, entry *storage.Entry) {
	var request models.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := pairing.ParseOutcome(request.Outcome)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	var response models.SessionResponse
	err = entry.With(func(s *pairing.Session) error {
		c, err := s.Record(outcome)
		if err != nil {
			return err
		}
		slog.Info("Comparison recorded", "session_id", entry.ID, "left", c.Left, "right", c.Right, "outcome", c.Outcome)

		if h.autosaver != nil {
			if _, err := h.autosaver.Observe(r.Context(), entry.ID, s.Export()); err != nil {
				// the comparison stays recorded even when the save fails
				slog.Error("Autosave failed", "session_id", entry.ID, "error", err)
			}
		}

		if _, err := s.Current(); err != nil && !errors.Is(err, pairing.ErrExhausted) {
			return err
		}
		response = sessionResponse(entry, s)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.writeJSON(w, response)
}

func (h *Handler) exportSession(w http.ResponseWriter, r *http.Request, entry *storage.Entry) {
	var log []pairing.Comparison
	_ = entry.With(func(s *pairing.Session) error {
		log = s.Export()
		return nil
	})

	format := r.URL.Query().Get("format")
	var buf bytes.Buffer
	switch format {
	case "", "json":
		h.writeJSON(w, results.Rows(log))
		return
	case "csv":
		if err := results.WriteCSV(&buf, log); err != nil {
			h.writeError(w, "Failed to encode CSV: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
	case "parquet":
		if err := results.WriteParquet(&buf, log); err != nil {
			h.writeError(w, "Failed to encode Parquet: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	default:
		h.writeError(w, "Invalid format. Must be 'json', 'csv', or 'parquet'", http.StatusBadRequest)
		return
	}

	filename := results.FileName("comparisons", entry.ID, "."+format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write export", "session_id", entry.ID, "err", err)
	}
}
