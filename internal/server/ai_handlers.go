package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LLM-backed handlers answer 200 with success:false and a fallback message
// when the model is unavailable; only input and auth errors are non-200.

// GetRecommendation handles POST /api/ai/getRecommendation
// @Summary Personalized recommendation
// @Tags ai
// @Accept json
// @Produce json
// @Param request body service.RecommendationInput true "Topic and context"
// @Success 200 {object} service.RecommendationResult
// @Router /ai/getRecommendation [post]
func (s *Server) GetRecommendation(c *fiber.Ctx) error {
	var in service.RecommendationInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.ai.GetRecommendation(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// Chat handles POST /api/ai/chat
// @Summary Chat with the wellness assistant
// @Tags ai
// @Accept json
// @Produce json
// @Param request body service.ChatInput true "Message"
// @Success 200 {object} service.ChatResult
// @Failure 403 {object} models.ErrorResponse
// @Router /ai/chat [post]
func (s *Server) Chat(c *fiber.Ctx) error {
	var in service.ChatInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.ai.Chat(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetMotivation handles POST /api/ai/getMotivation
func (s *Server) GetMotivation(c *fiber.Ctx) error {
	var in service.MotivationInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.ai.GetMotivation(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}
