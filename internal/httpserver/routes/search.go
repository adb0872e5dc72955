package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/mw"
)

func init() { Register(registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.SearchBurst,
		RefillPerIPPerMin: d.SearchRefillPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger), limit).Post("/search", handlers.Search(d))
}
