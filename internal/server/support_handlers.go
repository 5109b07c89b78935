package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ticketIDRequest struct {
	TicketID string `json:"ticketId"`
}

// CreateTicket handles POST /api/support/createTicket
// @Summary Open a support ticket
// @Description Opens a ticket assigned to the support agent and stores the first user message
// @Tags support
// @Accept json
// @Produce json
// @Param request body service.CreateTicketInput true "Ticket"
// @Success 200 {object} service.CreateTicketResult
// @Failure 400 {object} models.ErrorResponse
// @Router /support/createTicket [post]
func (s *Server) CreateTicket(c *fiber.Ctx) error {
	var in service.CreateTicketInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.support.CreateTicket(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// SendSupportMessage handles POST /api/support/sendMessage
// @Summary Send a message on an open ticket
// @Tags support
// @Accept json
// @Produce json
// @Param request body service.SendMessageInput true "Message"
// @Success 200 {object} service.SendMessageResult
// @Failure 404 {object} models.ErrorResponse
// @Router /support/sendMessage [post]
func (s *Server) SendSupportMessage(c *fiber.Ctx) error {
	var in service.SendMessageInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.support.SendMessage(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetTicket handles GET /api/support/getTicket?ticketId=
func (s *Server) GetTicket(c *fiber.Ctx) error {
	ticketID, err := requireQuery(c, "ticketId")
	if err != nil {
		return nil
	}
	detail, err := s.support.GetTicket(c.UserContext(), currentUserID(c), ticketID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(detail)
}

// GetTickets handles GET /api/support/getTickets
func (s *Server) GetTickets(c *fiber.Ctx) error {
	tickets, err := s.support.GetTickets(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(tickets)
}

// CloseTicket handles POST /api/support/closeTicket
func (s *Server) CloseTicket(c *fiber.Ctx) error {
	var req ticketIDRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.support.CloseTicket(c.UserContext(), currentUserID(c), req.TicketID); err != nil {
		return respond(c, err)
	}
	return c.JSON(service.Success{Success: true})
}

// RateInteraction handles POST /api/support/rateInteraction
func (s *Server) RateInteraction(c *fiber.Ctx) error {
	var in service.RateInteractionInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	if err := s.support.RateInteraction(c.UserContext(), in); err != nil {
		return respond(c, err)
	}
	return c.JSON(service.Success{Success: true})
}
