package feasibility

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/usage"
)

// Handler exposes deep feasibility report endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/feasibility-reports", h.create)
	rg.GET("/feasibility-reports", h.list)
	rg.GET("/feasibility-reports/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	if !h.Svc.Configured() {
		respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "feasibility analysis is not configured", nil)
		return
	}

	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	job, err := h.Svc.CreateCharged(ctx, userID, middleware.QuotaKey(c), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrLLMNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "feasibility analysis is not configured", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your weekly report limit.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start feasibility report", nil)
		}
		return
	}

	c.Set("reportId", job.ID)
	c.Set("statusTransition", "->"+job.Status)
	respond.Accepted(c, "/api/v1/feasibility-reports/"+job.ID, gin.H{
		"id":        job.ID,
		"status":    job.Status,
		"createdAt": job.CreatedAt,
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Set("reportId", c.Param("id"))
	job, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch report", nil)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	limit, offset := pageParams(c)
	jobs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reports", nil)
		return
	}
	respond.OK(c, gin.H{
		"items":  jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func pageParams(c *gin.Context) (int, int) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
