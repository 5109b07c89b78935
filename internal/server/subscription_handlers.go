package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPlans handles GET /api/subscription/getPlans
// @Summary List subscription plans
// @Tags subscription
// @Produce json
// @Success 200 {array} models.SubscriptionPlan
// @Router /subscription/getPlans [get]
func (s *Server) GetPlans(c *fiber.Ctx) error {
	plans, err := s.subscriptions.GetPlans(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(plans)
}

// GetMySubscription handles GET /api/subscription/getMySubscription
// @Summary Current subscription with trial state
// @Tags subscription
// @Produce json
// @Success 200 {object} service.SubscriptionView
// @Router /subscription/getMySubscription [get]
func (s *Server) GetMySubscription(c *fiber.Ctx) error {
	view, err := s.subscriptions.GetMySubscription(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, view)
}

// InitializeTrial handles POST /api/subscription/initializeTrial
// @Summary Start the free trial
// @Tags subscription
// @Produce json
// @Success 200 {object} service.TrialResult
// @Failure 409 {object} models.ErrorResponse
// @Router /subscription/initializeTrial [post]
func (s *Server) InitializeTrial(c *fiber.Ctx) error {
	res, err := s.subscriptions.InitializeTrial(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// UpgradeToPlan handles POST /api/subscription/upgradeToPlan
// @Summary Upgrade to a plan
// @Tags subscription
// @Accept json
// @Produce json
// @Param request body service.UpgradeInput true "Plan"
// @Success 200 {object} service.UpgradeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /subscription/upgradeToPlan [post]
func (s *Server) UpgradeToPlan(c *fiber.Ctx) error {
	var in service.UpgradeInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.subscriptions.UpgradeToPlan(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// CancelPlanSubscription handles POST /api/subscription/cancelSubscription
func (s *Server) CancelPlanSubscription(c *fiber.Ctx) error {
	res, err := s.subscriptions.CancelSubscription(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// HasAccessToContent handles GET /api/subscription/hasAccessToContent?contentType=&contentId=
// @Summary Check content access for the current plan
// @Tags subscription
// @Produce json
// @Param contentType query string true "video, meditation, nutrition_plan, exclusive or advanced_ai"
// @Param contentId query string false "Content id"
// @Success 200 {object} service.AccessResult
// @Router /subscription/hasAccessToContent [get]
func (s *Server) HasAccessToContent(c *fiber.Ctx) error {
	res, err := s.subscriptions.HasAccessToContent(c.UserContext(), service.AccessInput{
		UserID:      currentUserID(c),
		ContentType: c.Query("contentType"),
		ContentID:   c.Query("contentId"),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}
