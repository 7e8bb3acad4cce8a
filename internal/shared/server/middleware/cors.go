package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Guest-Id, X-User-Id, X-Request-Id"
	corsExposeHeaders = "X-Request-Id, Retry-After, Location"
	corsMaxAge        = "600"
)

type corsPolicy struct {
	origins  map[string]bool
	wildcard bool
}

func newCORSPolicy(allowed []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]bool, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[o] = true
		}
	}
	return p
}

// allow returns the Allow-Origin value for origin and whether credentials may
// be sent with it. Only listed origins get credentials.
func (p corsPolicy) allow(origin string) (string, bool) {
	switch {
	case origin == "":
		return "", false
	case p.origins[origin]:
		return origin, true
	case p.wildcard:
		return "*", false
	default:
		return "", false
	}
}

// CORS answers browser preflights for the buyer web app. Preflights always
// end here with 204, whether or not the origin is allowed.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)
	return func(c *gin.Context) {
		if value, creds := policy.allow(c.GetHeader("Origin")); value != "" {
			h := c.Writer.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", value)
			if creds {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
