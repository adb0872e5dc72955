package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/mw"
)

func init() { Register(registerSessions) }

func registerSessions(r chi.Router, d deps.Deps) {
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/", handlers.GetSession(d))
		r.Delete("/", handlers.DeleteSession(d))
		r.Patch("/records/{index}", handlers.SelectRecord(d))
		r.Post("/probe", handlers.ProbeSession(d))
		r.Get("/export", handlers.ExportSession(d))
	})
}
