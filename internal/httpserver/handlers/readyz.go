package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready       bool `json:"ready"`
	Credentials bool `json:"credentials"`
	Sessions    bool `json:"sessions"`
}

// Readyz reports ready once search credentials are present and the session
// backend answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{
			Credentials: d.Credentials.Credentials().Validate() == nil,
		}
		_, err := d.Sessions.Count(ctx)
		resp.Sessions = err == nil
		resp.Ready = resp.Credentials && resp.Sessions

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
