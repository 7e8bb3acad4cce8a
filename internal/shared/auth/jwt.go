package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

// Buyer roles carried in the role claim.
const (
	RoleBuyer = "buyer"
	RoleAgent = "agent"
)

const defaultTokenTTL = 24 * time.Hour

// Claims is the identity issued to signed-in buyers. The subject becomes the
// user id that owns classifications, reports and quota.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignJWT signs claims with HS256. Missing iat and exp default to now and
// now+24h, a missing role to buyer, and the issuer to JWT_ISSUER when set.
func SignJWT(claims Claims) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}

	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(defaultTokenTTL))
	}
	if claims.Issuer == "" {
		claims.Issuer = issuer()
	}
	if claims.Role == "" {
		claims.Role = RoleBuyer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyJWT checks signature, expiry, and issuer when JWT_ISSUER is set.
// Every failure collapses to ErrInvalidToken.
func VerifyJWT(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if iss := issuer(); iss != "" && claims.Issuer != iss {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || strings.HasPrefix(claims.Subject, "guest:") {
		return Claims{}, ErrInvalidToken
	}
	switch claims.Role {
	case "":
		claims.Role = RoleBuyer
	case RoleBuyer, RoleAgent:
	default:
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func issuer() string {
	return strings.TrimSpace(os.Getenv("JWT_ISSUER"))
}

func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "production" || env == "prod" {
		if secret == "" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}
