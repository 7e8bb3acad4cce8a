package classifications

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
)

// Handler exposes classification, quote and rulebook endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/levels", h.levels)
	rg.GET("/levels/:level", h.level)
	rg.POST("/classifications", h.create)
	rg.GET("/classifications", h.list)
	rg.GET("/classifications/:id", h.get)
	rg.POST("/classifications/:id/quote", h.quote)
}

type createRequest struct {
	Request      *requests.ProductRequest         `json:"request"`
	SelectedItem *customization.VisualizationItem `json:"selectedItem"`
}

type quoteRequest struct {
	SelectedItem *customization.VisualizationItem `json:"selectedItem"`
}

func (h *Handler) levels(c *gin.Context) {
	respond.OK(c, gin.H{"items": customization.Levels()})
}

func (h *Handler) level(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("level"))
	if err != nil || !customization.Level(n).Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "level must be between 1 and 5", nil)
		return
	}
	respond.OK(c, customization.LevelInfoFor(customization.Level(n)))
}

func (h *Handler) create(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.Request == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request is required", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Classify(ctx, userID, *body.Request, body.SelectedItem)
	if err != nil {
		var fieldErr *requests.FieldError
		switch {
		case errors.As(err, &fieldErr):
			respond.Error(c, http.StatusBadRequest, "validation_error", fieldErr.Message, gin.H{"field": fieldErr.Field})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			writeError(c, err, "failed to classify request")
		}
		return
	}
	c.Set("classificationId", rec.ID)
	respond.Created(c, "/api/v1/classifications/"+rec.ID, rec)
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch classification")
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list classifications")
		return
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) quote(c *gin.Context) {
	var body quoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	q, err := h.Svc.Quote(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), body.SelectedItem)
	if err != nil {
		writeError(c, err, "failed to build quote")
		return
	}
	respond.OK(c, q)
}

func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "classification not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func pageParams(c *gin.Context) (int, int) {
	limit, offset := 20, 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 50 {
		limit = 50
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
