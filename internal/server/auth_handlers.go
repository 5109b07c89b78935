package server

import (
	"time"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Returns the signed-in user or null
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.auth.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, user)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revokes the session token and clears the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} service.Success
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.auth.Logout(c.UserContext(), currentClaims(c)); err != nil {
		return respond(c, err)
	}
	s.clearSessionCookie(c)
	return c.JSON(service.Success{Success: true})
}

// OAuthLogin handles GET /api/oauth/login?returnTo=/path
func (s *Server) OAuthLogin(c *fiber.Ctx) error {
	url, err := s.auth.AuthCodeURL(c.Query("returnTo", "/"))
	if err != nil {
		return respond(c, err)
	}
	return c.Redirect(url, fiber.StatusFound)
}

// OAuthCallback handles GET /api/oauth/callback
// @Summary OAuth callback
// @Description Exchanges the authorization code, sets the session cookie and redirects
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "Encoded return path"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /oauth/callback [get]
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	res, redirect, err := s.auth.OAuthCallback(c.UserContext(), c.Query("code"), c.Query("state"))
	if err != nil {
		return respond(c, err)
	}
	s.setSessionCookie(c, res.Token, res.ExpiresAt)
	return c.Redirect(redirect, fiber.StatusFound)
}

// DevLogin handles POST /api/auth/dev-login. Registered outside production only.
// @Summary Development login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.DevLoginInput true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/dev-login [post]
func (s *Server) DevLogin(c *fiber.Ctx) error {
	var in service.DevLoginInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	res, err := s.auth.DevLogin(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	s.setSessionCookie(c, res.Token, res.ExpiresAt)
	return c.JSON(res)
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue websocket ticket
// @Description Returns a single-use ticket valid for 60 seconds
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.auth.IssueWSTicket(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(service.WSTicketTTL.Seconds()),
	})
}
