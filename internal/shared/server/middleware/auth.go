package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/auth"
	"sourcing-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userCompanyKey = "userCompany"
	userRoleKey    = "userRole"
	isGuestKey     = "isGuest"

	guestPrefix   = "guest:"
	guestIPPrefix = "guest-ip:"
	maxGuestIDLen = 64
	roleGuest     = "guest"
	invalidToken  = "missing or invalid token"
)

// Auth resolves the caller from a bearer JWT or, failing that, an
// X-Guest-Id header. Guests become "guest:<id>" principals with no role.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			token, ok := bearerToken(header)
			if !ok {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", invalidToken, nil)
				return
			}
			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", invalidToken, nil)
				return
			}
			setClaims(c, claims)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		if !validGuestID(guestID) {
			respond.Error(c, http.StatusBadRequest, "invalid_guest_id", "X-Guest-Id must be printable and at most 64 characters", nil)
			return
		}
		c.Set(userIDKey, GuestUserID(guestID))
		c.Set(isGuestKey, true)
		c.Next()
	}
}

// QuotaKey is the principal report quota and rate limits are charged to.
// Guests choose their own id, so they are keyed by client IP instead.
func QuotaKey(c *gin.Context) string {
	if IsGuest(c) {
		return guestIPPrefix + c.ClientIP()
	}
	return UserIDFromContext(c)
}

// GuestUserID is the owner id stored for rows created by a guest.
func GuestUserID(guestID string) string {
	return guestPrefix + guestID
}

// RequireRole lets through signed-in callers holding one of roles. Guests
// get 401 login_required, other roles 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsGuest(c) {
			respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to continue", nil)
			return
		}
		if !slices.Contains(roles, UserRoleFromContext(c)) {
			respond.Error(c, http.StatusForbidden, "forbidden", "role not allowed", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(userIDKey, claims.Subject)
	c.Set(userRoleKey, claims.Role)
	c.Set(isGuestKey, false)
	for key, val := range map[string]string{
		userEmailKey:   claims.Email,
		userNameKey:    claims.Name,
		userCompanyKey: claims.Company,
	} {
		if val != "" {
			c.Set(key, val)
		}
	}
}

func validGuestID(id string) bool {
	if len(id) > maxGuestIDLen {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}

// UserIDFromContext returns the principal id: a token subject or "guest:<id>".
func UserIDFromContext(c *gin.Context) string { return contextString(c, userIDKey) }

// UserEmailFromContext returns the token email, if any.
func UserEmailFromContext(c *gin.Context) string { return contextString(c, userEmailKey) }

// UserNameFromContext returns the token display name, if any.
func UserNameFromContext(c *gin.Context) string { return contextString(c, userNameKey) }

// UserCompanyFromContext returns the buyer's company from the token, if any.
func UserCompanyFromContext(c *gin.Context) string { return contextString(c, userCompanyKey) }

// UserRoleFromContext returns the token role, or "guest" for guest callers.
func UserRoleFromContext(c *gin.Context) string {
	if IsGuest(c) {
		return roleGuest
	}
	return contextString(c, userRoleKey)
}

// IsGuest reports whether the caller authenticated with X-Guest-Id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(isGuestKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	return c.GetString(key)
}
