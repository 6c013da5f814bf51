// Package httpapi assembles the public router. It stays free of business
// logic: handlers register themselves, middleware is applied here once.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modgate/internal/platform/middleware"
)

// Registrar is implemented by module handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the chi router with the standard middleware chain.
// /healthz and /metrics stay outside authentication; everything else
// requires a moderator token and counts against the per-moderator rate
// limit. A nil rateLimit disables limiting.
func NewRouter(moderation, tasks Registrar, authMiddleware, rateLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		moderation.Register(r)
		tasks.Register(r)
	})

	return r
}
