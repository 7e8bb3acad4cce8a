package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/telemetry"
)

// quietPaths are polled by load balancers and scrapers; they are only logged
// when they fail.
var quietPaths = map[string]bool{
	"/metrics":       true,
	"/api/v1/health": true,
}

// Logging emits one structured line per request once the handler chain
// returns. Level follows the status class.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if status < http.StatusBadRequest && quietPaths[c.Request.URL.Path] {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             route,
			"status":            status,
			"status_transition": c.GetString("statusTransition"),
			"duration_ms":       float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_out":         c.Writer.Size(),
			"user_id":           c.GetString(userIDKey),
			"role":              UserRoleFromContext(c),
			"classification_id": c.GetString("classificationId"),
			"report_id":         c.GetString("reportId"),
			"is_guest":          IsGuest(c),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
