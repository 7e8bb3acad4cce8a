package account

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
)

// Handler exposes the guest-to-buyer handover.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

type claimBody struct {
	GuestID string `json:"guestId"`
}

type fieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// guestIDFrom reads the guest id from the body, falling back to X-Guest-Id
// for web clients that still send it alongside the bearer token.
func guestIDFrom(c *gin.Context) (string, *fieldIssue, error) {
	var body claimBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			return "", nil, err
		}
	}
	id := strings.TrimSpace(body.GuestID)
	if id == "" {
		id = strings.TrimSpace(c.GetHeader("X-Guest-Id"))
	}
	if id == "" {
		return "", &fieldIssue{Field: "guestId", Issue: "required"}, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", &fieldIssue{Field: "guestId", Issue: "invalid"}, nil
	}
	return id, nil, nil
}

// claimGuest moves a guest's classifications and reports to the signed-in buyer.
func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	buyerID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if middleware.IsGuest(c) || buyerID == "" {
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in before claiming guest history", nil)
		return
	}

	guestID, issue, err := guestIDFrom(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if issue != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "guest id is "+issue.Issue, []fieldIssue{*issue})
		return
	}

	guestUserID := middleware.GuestUserID(guestID)
	result, err := h.Svc.ClaimGuest(c.Request.Context(), guestUserID, buyerID)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to claim guest history", nil)
		return
	}

	telemetry.Info("account.guest_claimed", map[string]any{
		"request_id":               middleware.RequestIDFromContext(c),
		"user_id":                  buyerID,
		"guest_user_id":            guestUserID,
		"migrated_classifications": result.MigratedClassifications,
		"migrated_reports":         result.MigratedReports,
	})
	respond.OK(c, result)
}
