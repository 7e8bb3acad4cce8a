package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/telemetry"
)

// ErrorBody is the error envelope every endpoint returns.
type ErrorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs and aborts with the error envelope. Client errors log at warn,
// server errors at error.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	requestID := c.GetString("requestId")
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": requestID,
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	if id := c.GetString("classificationId"); id != "" {
		fields["classification_id"] = id
	}
	if id := c.GetString("reportId"); id != "" {
		fields["report_id"] = id
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}
