package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkaudit/internal/export"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
)

type selectRequest struct {
	Selected *bool `json:"selected"`
}

// GetSession returns a stored session.
func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := d.Audit.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// DeleteSession drops a session.
func DeleteSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Audit.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SelectRecord toggles probing for one record.
func SelectRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "record index must be an integer")
			return
		}

		var body selectRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body.Selected == nil {
			writeError(w, http.StatusBadRequest, `body must be {"selected": true|false}`)
			return
		}

		sess, err := d.Audit.SetSelected(r.Context(), chi.URLParam(r, "id"), index, *body.Selected)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// ProbeSession probes the selected records of a session one by one and
// returns the session with updated statuses.
func ProbeSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sess, err := d.Audit.Probe(r.Context(), id, nil)
		if err != nil {
			if sess != nil && r.Context().Err() != nil {
				d.Logger.Warn("probe cut short by request context",
					logger.String("session_id", id),
					logger.Error(err))
				return
			}
			status := writeServiceError(w, err)
			if status == http.StatusInternalServerError {
				d.Logger.Error("probe failed",
					logger.String("session_id", id),
					logger.Error(err))
			}
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// ExportSession downloads the records as CSV (default) or NDJSON.
func ExportSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		sess, err := d.Audit.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		name := sess.Domain
		if name == "" {
			name = sess.ID
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": fmt.Sprintf("linkaudit-%s.%s", name, format),
		}))
		if err := export.Write(w, format, sess.Records); err != nil {
			d.Logger.Debug("failed to write export", logger.Error(err))
		}
	}
}
