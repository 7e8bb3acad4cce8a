package requests

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/shared/server/respond"
)

const maxRawTextLen = 10000

// Handler exposes request parsing and normalization.
type Handler struct {
	Parser *Parser
}

// NewHandler constructs a Handler with a default parser.
func NewHandler() *Handler {
	return &Handler{Parser: &Parser{}}
}

// RegisterRoutes attaches request routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/parse", h.parse)
	rg.POST("/requests/normalize", h.normalize)
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Request           ProductRequest                   `json:"request"`
	RequestJSON       customization.ProductRequestJSON `json:"requestJson"`
	VisualDescription string                           `json:"visualDescription"`
}

func (h *Handler) parse(c *gin.Context) {
	var body parseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	body.Text = strings.TrimSpace(body.Text)
	if body.Text == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text is required", nil)
		return
	}
	if len(body.Text) > maxRawTextLen {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text is too long", gin.H{"maxLength": maxRawTextLen})
		return
	}

	parsed := h.Parser.Parse(body.Text)
	normalized, err := Normalize(parsed)
	if err != nil {
		writeNormalizeError(c, err)
		return
	}

	respond.OK(c, parseResponse{
		Request:           parsed,
		RequestJSON:       normalized,
		VisualDescription: StripQuantity(parsed.Description),
	})
}

func (h *Handler) normalize(c *gin.Context) {
	var body ProductRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	normalized, err := Normalize(body)
	if err != nil {
		writeNormalizeError(c, err)
		return
	}

	respond.OK(c, gin.H{"requestJson": normalized})
}

func writeNormalizeError(c *gin.Context, err error) {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		respond.Error(c, http.StatusBadRequest, "validation_error", fieldErr.Message, gin.H{"field": fieldErr.Field})
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
}
