package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	SessionsActive *int   `json:"sessions_active,omitempty"`
	LastReload     string `json:"last_reload,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"credentials": checkCredentials(d),
			"sessions":    checkSessions(r.Context(), d),
		}
		if d.SessionBackend == "redis" {
			components["redis"] = checkRedis(r.Context(), d)
		}

		response := infraResponse{
			Status:     determineStatus(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineStatus(components map[string]componentStatus) string {
	// Searches are refused without credentials
	if creds, exists := components["credentials"]; exists && !creds.OK {
		return "critical"
	}

	// Sessions unreachable means search results cannot be kept
	if sessions, exists := components["sessions"]; exists && !sessions.OK {
		return "degraded"
	}

	return "operational"
}

func checkCredentials(d deps.Deps) componentStatus {
	mode := "env"
	if d.SecretsFile != "" {
		mode = "secrets-file"
	}

	lastReload := "never"
	if t := d.Credentials.LastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}

	if err := d.Credentials.Credentials().Validate(); err != nil {
		return componentStatus{
			OK:         false,
			Mode:       mode,
			LastReload: lastReload,
			Impact:     "search-disabled",
			Error:      err.Error(),
		}
	}

	return componentStatus{
		OK:         true,
		Mode:       mode,
		LastReload: lastReload,
	}
}

func checkSessions(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := d.Sessions.Count(ctx)
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.SessionBackend,
			Impact: "sessions-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:             true,
		Mode:           d.SessionBackend,
		SessionsActive: &n,
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:    false,
			Mode:  "degraded",
			Error: "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sessions-unavailable",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:   true,
		Mode: "optimal",
	}
}
