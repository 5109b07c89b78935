package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Session token constants shared by token issuance and verification.
const (
	SessionCookieName = "app_session_id"
	TokenIssuer       = "healthbuddy-api"
	TokenAudience     = "healthbuddy-client"
)

var (
	ErrMissingToken    = errors.New("authorization required")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidIssuer   = errors.New("invalid token issuer")
	ErrInvalidAudience = errors.New("invalid token audience")
	ErrInvalidSubject  = errors.New("invalid subject claim")
)

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	UserID    string
	JTI       string
	ExpiresAt time.Time
}

// TokenFromRequest extracts a session token from the Authorization header or,
// failing that, the session cookie. Returns "" when neither is present.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(SessionCookieName)
}

// ParseSessionToken validates signature, expiry, issuer and audience and returns the claims.
func ParseSessionToken(secret, tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
		return nil, ErrInvalidIssuer
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
		return nil, ErrInvalidAudience
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidSubject
	}

	out := &SessionClaims{UserID: sub}
	out.JTI, _ = claims["jti"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
