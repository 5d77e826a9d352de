// Package httptransport exposes the read-only ops surface: health, metrics,
// and authenticated inspection of a guild's sync links. All mutations flow
// through the chat command surface, never through HTTP.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rolesync/internal/platform/middleware"
)

// NewRouter assembles the ops router. Sync-link reads sit behind bearer auth;
// health and metrics stay open for probes and scrapers.
func NewRouter(h *Handler, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		r.Get("/guilds/{guildID}/sync-links", h.HandleListSyncLinks)
	})

	return r
}
