package usage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.quota(h.Svc.Get, "failed to fetch usage"))
}

// RegisterDevRoutes mounts POST /usage/reset, which clears the caller's
// window so report flows can be exercised repeatedly in dev.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/usage/reset", h.quota(h.Svc.Reset, "failed to reset usage"))
}

// quota adapts a per-principal usage call into a handler answering with Quota.
func (h *Handler) quota(call func(context.Context, string) (Usage, error), failMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := middleware.QuotaKey(c)
		u, err := call(c.Request.Context(), key)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		case err != nil:
			telemetry.Error("usage.request_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"user_id":    middleware.UserIDFromContext(c),
				"route":      c.FullPath(),
				"error":      err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", failMsg, nil)
		default:
			respond.OK(c, u.Quota())
		}
	}
}
