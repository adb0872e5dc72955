package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps wires health, readiness, metrics and reload endpoints.
// Only /healthz is reachable without the CIDR allow-list.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Get("/infra", handlers.Infra(d))
	restricted.Method("GET", "/metrics", d.Metrics.Handler())

	restricted.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
}
