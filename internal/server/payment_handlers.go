package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePaymentIntent handles POST /api/payment/createPaymentIntent
// @Summary Create a payment intent
// @Tags payment
// @Accept json
// @Produce json
// @Param request body service.PaymentIntentInput true "Plan and amount"
// @Success 200 {object} service.PaymentIntentResult
// @Failure 503 {object} models.ErrorResponse
// @Router /payment/createPaymentIntent [post]
func (s *Server) CreatePaymentIntent(c *fiber.Ctx) error {
	var in service.PaymentIntentInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.payments.CreatePaymentIntent(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// Subscribe handles POST /api/payment/subscribe
// @Summary Create a processor subscription
// @Tags payment
// @Accept json
// @Produce json
// @Param request body service.SubscribeInput true "Plan and payment intent"
// @Success 200 {object} service.SubscribeResult
// @Router /payment/subscribe [post]
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var in service.SubscribeInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.payments.Subscribe(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetCurrentSubscription handles GET /api/payment/getCurrentSubscription.
// Returns null when there is nothing to report.
func (s *Server) GetCurrentSubscription(c *fiber.Ctx) error {
	return jsonOrNull(c, s.payments.GetCurrentSubscription(c.UserContext(), currentUserID(c)))
}

// CancelPaymentSubscription handles POST /api/payment/cancelSubscription
func (s *Server) CancelPaymentSubscription(c *fiber.Ctx) error {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.payments.CancelSubscription(c.UserContext(), currentUserID(c), req.SubscriptionID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// PaymentWebhook handles POST /api/payment/webhook
// @Summary Payment processor webhook
// @Description Verifies the Stripe-Signature header against the raw body
// @Tags payment
// @Accept json
// @Produce json
// @Success 200 {object} object{received=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /payment/webhook [post]
func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	if err := s.payments.HandleWebhook(c.UserContext(), payload, c.Get("Stripe-Signature")); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
