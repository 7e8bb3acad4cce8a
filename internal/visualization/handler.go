package visualization

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/shared/server/respond"
)

// Handler serves concept generation and refinement.
type Handler struct {
	Gen *Generator
}

// NewHandler constructs a Handler with a default generator.
func NewHandler() *Handler {
	return &Handler{Gen: &Generator{}}
}

// RegisterRoutes attaches concept routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/visualizations", h.generate)
	rg.POST("/visualizations/branch", h.branch)
}

type generateRequest struct {
	Request        *requests.ProductRequest `json:"request"`
	Count          int                      `json:"count"`
	AltDescription string                   `json:"altDescription"`
}

type branchRequest struct {
	Parent *customization.VisualizationItem `json:"parent"`
	Count  int                              `json:"count"`
}

func (h *Handler) generate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.Request == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request is required", nil)
		return
	}
	if body.Count < 0 || body.Count > MaxConcepts {
		respond.Error(c, http.StatusBadRequest, "validation_error", "count is out of range", gin.H{"max": MaxConcepts})
		return
	}

	normalized, err := requests.Normalize(*body.Request)
	if err != nil {
		var fieldErr *requests.FieldError
		if errors.As(err, &fieldErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", fieldErr.Message, gin.H{"field": fieldErr.Field})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if normalized.Product.Description == "" && strings.TrimSpace(body.AltDescription) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request.description is required", nil)
		return
	}

	respond.OK(c, gin.H{"items": h.Gen.Generate(normalized, body.Count, body.AltDescription)})
}

func (h *Handler) branch(c *gin.Context) {
	var body branchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.Parent == nil || strings.TrimSpace(body.Parent.Name) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "parent with a name is required", nil)
		return
	}
	if body.Count < 0 || body.Count > MaxConcepts {
		respond.Error(c, http.StatusBadRequest, "validation_error", "count is out of range", gin.H{"max": MaxConcepts})
		return
	}

	respond.OK(c, gin.H{"items": h.Gen.Branch(*body.Parent, body.Count)})
}
