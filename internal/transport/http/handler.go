package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rolesync/internal/platform/middleware"
	"rolesync/internal/product/models"
	dErrors "rolesync/pkg/domain-errors"
	"rolesync/pkg/platform/httputil"
)

// LinkReader is the slice of the sync-link manager the ops surface needs.
type LinkReader interface {
	List(ctx context.Context, guildID string) ([]*models.Product, error)
}

// HealthChecker reports readiness of an attached backing service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler serves the ops endpoints. It only reads; the chat command surface
// owns every mutation.
type Handler struct {
	links  LinkReader
	checks map[string]HealthChecker
	logger *slog.Logger
}

func NewHandler(links LinkReader, logger *slog.Logger) *Handler {
	return &Handler{
		links:  links,
		checks: make(map[string]HealthChecker),
		logger: logger,
	}
}

// AddHealthCheck registers a named dependency probe reported by /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthChecker) {
	h.checks[name] = check
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = "unavailable"
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	httputil.WriteJSON(w, status, body)
}

// HandleListSyncLinks handles GET /guilds/{guildID}/sync-links requests.
func (h *Handler) HandleListSyncLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guildID := chi.URLParam(r, "guildID")
	if guildID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "missing guild id"))
		return
	}

	links, err := h.links.List(ctx, guildID)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync link listing failed",
			"guild_id", guildID,
			"subject", middleware.GetSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list sync links"))
		return
	}

	if links == nil {
		links = []*models.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"guild_id":   guildID,
		"sync_links": links,
	})
}
