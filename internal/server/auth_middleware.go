package server

import (
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localClaims = "sessionClaims"
)

// AuthRequired rejects requests without a valid, unrevoked session token.
// The token comes from the Authorization header or the session cookie.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.TokenFromRequest(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		claims, err := s.auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		s.setSession(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := middleware.TokenFromRequest(c); token != "" {
			if claims, err := s.auth.Authenticate(c.UserContext(), token); err == nil {
				s.setSession(c, claims)
			}
		}
		return c.Next()
	}
}

// WebSocketAuth authenticates a websocket upgrade with a single-use ticket.
// Session tokens in the query string are never accepted here.
func (s *Server) WebSocketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.auth.RedeemWSTicket(c.UserContext(), c.Query("ticket"))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		c.Locals(localUserID, userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func (s *Server) setSession(c *fiber.Ctx, claims *middleware.SessionClaims) {
	c.Locals(localUserID, claims.UserID)
	c.Locals(localClaims, claims)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
}

// currentUserID returns the authenticated user id, or "" for anonymous requests.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func currentClaims(c *fiber.Ctx) *middleware.SessionClaims {
	claims, _ := c.Locals(localClaims).(*middleware.SessionClaims)
	return claims
}
