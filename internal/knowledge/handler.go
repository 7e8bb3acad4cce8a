package knowledge

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB across all files

// Handler exposes knowledge base endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the knowledge routes. Routes that change the shared
// knowledge base run write first.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	guarded := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(write), fn)
	}
	rg.GET("/knowledge", h.list)
	rg.GET("/knowledge/export", h.export)
	rg.GET("/knowledge/:id", h.get)
	rg.POST("/knowledge/conversations", h.extractConversations)

	rg.POST("/knowledge", guarded(h.create)...)
	rg.POST("/knowledge/import", guarded(h.importBulk)...)
	rg.POST("/knowledge/learn", guarded(h.learn)...)
	rg.POST("/knowledge/uploads", guarded(h.upload)...)
	rg.POST("/knowledge/uploads/ingest", guarded(h.ingestStored)...)
	rg.PATCH("/knowledge/:id", guarded(h.update)...)
	rg.DELETE("/knowledge/:id", guarded(h.delete)...)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.Svc.List(c.Request.Context(), Filter{
		Query:    c.Query("q"),
		Category: customization.Category(c.Query("category")),
		Type:     EntryType(c.Query("type")),
	})
	if err != nil {
		writeError(c, err, "failed to list knowledge")
		return
	}
	respond.OK(c, gin.H{"items": entries})
}

func (h *Handler) get(c *gin.Context) {
	e, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch knowledge entry")
		return
	}
	respond.OK(c, e)
}

func (h *Handler) create(c *gin.Context) {
	var body Entry
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	body.ID = ""
	e, err := h.Svc.Add(c.Request.Context(), body)
	if err != nil {
		writeError(c, err, "failed to add knowledge entry")
		return
	}
	respond.Created(c, "/api/v1/knowledge/"+e.ID, e)
}

func (h *Handler) update(c *gin.Context) {
	var body Update
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, err, "failed to update knowledge entry")
		return
	}
	respond.OK(c, e)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete knowledge entry")
		return
	}
	c.Status(http.StatusNoContent)
}

type importRequest struct {
	Entries []Entry `json:"entries"`
	// Merge folds entries into existing upload entries by fingerprint.
	Merge *bool `json:"merge"`
}

func (h *Handler) importBulk(c *gin.Context) {
	var body importRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.Merge != nil && !*body.Merge {
		added, err := h.Svc.Import(c.Request.Context(), body.Entries)
		if err != nil {
			writeError(c, err, "failed to import knowledge")
			return
		}
		respond.OK(c, ImportResult{Added: added, Merged: []Entry{}})
		return
	}
	result, err := h.Svc.ImportBulk(c.Request.Context(), body.Entries)
	if err != nil {
		writeError(c, err, "failed to import knowledge")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) learn(c *gin.Context) {
	var body ConversationContext
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	entries, err := h.Svc.Learn(c.Request.Context(), body)
	if err != nil {
		writeError(c, err, "failed to learn from conversation")
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"items": entries})
}

func (h *Handler) export(c *gin.Context) {
	data, err := h.Svc.Export(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to export knowledge")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="knowledge-base.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

type conversationsRequest struct {
	Conversations []string `json:"conversations"`
}

// extractConversations previews extraction over pasted conversations without storing anything.
func (h *Handler) extractConversations(c *gin.Context) {
	var body conversationsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	convs := make([]Conversation, 0, len(body.Conversations))
	for _, text := range body.Conversations {
		convs = append(convs, Conversation{Text: text})
	}
	result, err := h.Svc.ExtractConversations(c.Request.Context(), convs)
	if err != nil {
		writeError(c, err, "failed to extract knowledge")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	headers := append([]*multipart.FileHeader{}, form.File["files"]...)
	headers = append(headers, form.File["file"]...)
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		defer f.Close()
		uploads = append(uploads, Upload{FileName: fh.Filename, Body: f})
	}

	result, err := h.Svc.IngestUploads(c.Request.Context(), middleware.UserIDFromContext(c), uploads)
	if err != nil {
		writeError(c, err, "failed to ingest conversations")
		return
	}
	respond.JSON(c, http.StatusCreated, result)
}

type ingestStoredRequest struct {
	StorageKeys []string `json:"storageKeys"`
}

func (h *Handler) ingestStored(c *gin.Context) {
	var body ingestStoredRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	result, err := h.Svc.IngestStored(c.Request.Context(), middleware.UserIDFromContext(c), body.StorageKeys)
	if err != nil {
		writeError(c, err, "failed to ingest conversations")
		return
	}
	respond.JSON(c, http.StatusCreated, result)
}

func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "knowledge entry not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrLLMNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "knowledge extraction is not configured", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
