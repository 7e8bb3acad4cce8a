package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/usage"
)

// registerMeRoutes attaches /me. The quota block is omitted when usage is nil.
func registerMeRoutes(rg *gin.RouterGroup, usageSvc *usage.Service) {
	rg.GET("/me", func(c *gin.Context) {
		meHandler(c, usageSvc)
	})
}

func meHandler(c *gin.Context, usageSvc *usage.Service) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":  userID,
		"isGuest": middleware.IsGuest(c),
		"role":    middleware.UserRoleFromContext(c),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}
	if company := middleware.UserCompanyFromContext(c); company != "" {
		response["company"] = company
	}

	if usageSvc != nil {
		u, err := usageSvc.Get(c.Request.Context(), middleware.QuotaKey(c))
		if err != nil {
			// identity still answers without quota
			telemetry.Error("me.usage_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"user_id":    userID,
				"error":      err,
			})
		} else {
			response["reportQuota"] = u.Quota()
		}
	}

	respond.JSON(c, http.StatusOK, response)
}
