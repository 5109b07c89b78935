package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile/getProfile
// @Summary Current user's profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.UserProfile
// @Router /profile/getProfile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	p, err := s.profiles.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, p)
}

// UpdateProfile handles POST /api/profile/updateProfile
// @Summary Update profile fields
// @Description Only the provided fields change. The profile is created on first update.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Fields"
// @Success 200 {object} service.SuccessMessage
// @Router /profile/updateProfile [post]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var in service.UpdateProfileInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.profiles.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// AddHealthTracking handles POST /api/profile/addHealthTracking
func (s *Server) AddHealthTracking(c *fiber.Ctx) error {
	var in service.HealthEntryInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.profiles.AddHealthTracking(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetHealthTracking handles GET /api/profile/getHealthTracking?startDate=&endDate=
func (s *Server) GetHealthTracking(c *fiber.Ctx) error {
	r, err := parseDateRange(c)
	if err != nil {
		return nil
	}
	entries, err := s.profiles.GetHealthTracking(c.UserContext(), currentUserID(c), r)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(entries)
}

// AddNutritionTracking handles POST /api/profile/addNutritionTracking
func (s *Server) AddNutritionTracking(c *fiber.Ctx) error {
	var in service.NutritionEntryInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.profiles.AddNutritionTracking(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetNutritionTracking handles GET /api/profile/getNutritionTracking?startDate=&endDate=
func (s *Server) GetNutritionTracking(c *fiber.Ctx) error {
	r, err := parseDateRange(c)
	if err != nil {
		return nil
	}
	entries, err := s.profiles.GetNutritionTracking(c.UserContext(), currentUserID(c), r)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(entries)
}

// AddAIConversation handles POST /api/profile/addAIConversation
func (s *Server) AddAIConversation(c *fiber.Ctx) error {
	var in service.ConversationInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.profiles.AddAIConversation(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetConversationHistory handles GET /api/profile/getConversationHistory?limit=
func (s *Server) GetConversationHistory(c *fiber.Ctx) error {
	history, err := s.profiles.GetConversationHistory(c.UserContext(), currentUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(history)
}
