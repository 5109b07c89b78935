package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/llm"
	"healthbuddy/internal/mailer"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"
	"healthbuddy/internal/repository"

	"github.com/google/uuid"
)

const emptyAgentReply = "I apologize, but I couldn't generate a response."

type SupportService struct {
	repo     repository.SupportRepository
	users    repository.UserRepository
	llm      llm.Client
	notifier Notifier
	mail     mailer.Mailer
	flags    *featureflags.Manager
	now      Clock
}

type CreateTicketInput struct {
	UserID   string
	Subject  string `json:"subject" validate:"min=5,max=200"`
	Message  string `json:"message" validate:"min=10,max=2000"`
	Category string `json:"category" validate:"oneof=billing technical account general"`
}

type CreateTicketResult struct {
	TicketID string `json:"ticketId"`
	Status   string `json:"status"`
	Agent    string `json:"agent"`
}

type SendMessageInput struct {
	UserID   string
	TicketID string `json:"ticketId" validate:"required"`
	Message  string `json:"message" validate:"min=1,max=2000"`
}

type SendMessageResult struct {
	AgentResponse string  `json:"agentResponse"`
	Escalated     bool    `json:"escalated"`
	NextAgent     string  `json:"nextAgent"`
	CurrentAgent  string  `json:"currentAgent"`
}

type TicketDetail struct {
	Ticket   *models.SupportTicket   `json:"ticket"`
	Messages []models.SupportMessage `json:"messages"`
}

type RateInteractionInput struct {
	UserID   string
	TicketID string  `json:"ticketId" validate:"required"`
	Rating   int     `json:"rating" validate:"gte=1,lte=5"`
	Feedback *string `json:"feedback"`
}

func NewSupportService(
	repo repository.SupportRepository,
	users repository.UserRepository,
	client llm.Client,
	notifier Notifier,
	mail mailer.Mailer,
	flags *featureflags.Manager,
	now Clock,
) *SupportService {
	return &SupportService{
		repo:     repo,
		users:    users,
		llm:      client,
		notifier: notifier,
		mail:     mail,
		flags:    flags,
		now:      clockOrDefault(now),
	}
}

// escalate inspects an agent reply for sentinels. The supervisor sentinel is
// checked first and wins from any persona; the manager sentinel moves any
// persona to manager. The returned reply has every sentinel removed.
func escalate(reply string) (clean string, next string, escalated bool) {
	switch {
	case strings.Contains(reply, EscalateToSupervisor):
		next, escalated = models.AgentSupervisor, true
	case strings.Contains(reply, EscalateToManager):
		next, escalated = models.AgentManager, true
	}
	clean = strings.ReplaceAll(reply, EscalateToSupervisor, "")
	clean = strings.ReplaceAll(clean, EscalateToManager, "")
	return strings.TrimSpace(clean), next, escalated
}

func (s *SupportService) CreateTicket(ctx context.Context, in CreateTicketInput) (*CreateTicketResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &models.SupportTicket{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Subject:      in.Subject,
		Category:     in.Category,
		Status:       models.TicketOpen,
		CurrentAgent: models.AgentSupport,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.repo.CreateMessage(ctx, &models.SupportMessage{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Sender:   models.SenderUser,
		Message:  in.Message,
		Agent:    models.AgentSupport,
	}); err != nil {
		return nil, err
	}

	if s.flags.Enabled(featureflags.SupportEmail, in.UserID) {
		s.sendMail(ctx, in.UserID, func(to mailer.Recipient) error {
			return s.mail.TicketReceipt(ctx, to, ticket.ID, ticket.Subject)
		})
	}

	return &CreateTicketResult{
		TicketID: ticket.ID,
		Status:   models.TicketOpen,
		Agent:    models.AgentSupport,
	}, nil
}

// SendMessage records the user's turn, asks the ticket's current persona for a
// reply and applies any escalation the reply requests. The user turn stays
// persisted when a later step fails.
func (s *SupportService) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	ticket, err := s.ownedTicket(ctx, in.UserID, in.TicketID)
	if err != nil {
		return nil, err
	}
	current := ticket.CurrentAgent

	if err := s.repo.CreateMessage(ctx, &models.SupportMessage{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Sender:   models.SenderUser,
		Message:  in.Message,
		Agent:    current,
	}); err != nil {
		return nil, err
	}

	history, err := s.repo.ListMessages(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: agentPrompt(current)})
	for _, m := range history {
		role := llm.RoleAssistant
		if m.Sender == models.SenderUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Message})
	}

	reply, err := s.llm.Complete(ctx, llm.Request{Persona: "support_" + current, Messages: msgs})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if reply == "" {
		reply = emptyAgentReply
	}

	clean, next, escalated := escalate(reply)

	if err := s.repo.CreateMessage(ctx, &models.SupportMessage{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Sender:   models.SenderAgent,
		Message:  clean,
		Agent:    current,
	}); err != nil {
		return nil, err
	}

	result := &SendMessageResult{
		AgentResponse: clean,
		Escalated:     escalated,
		NextAgent:     current,
		CurrentAgent:  current,
	}
	if !escalated {
		return result, nil
	}

	if err := s.repo.UpdateTicket(ctx, ticket.ID, map[string]interface{}{
		"current_agent": next,
		"updated_at":    s.now(),
	}); err != nil {
		return nil, err
	}
	result.NextAgent = next

	s.onEscalated(ctx, ticket, current, next)
	return result, nil
}

func (s *SupportService) onEscalated(ctx context.Context, ticket *models.SupportTicket, from, to string) {
	observability.SupportEscalations.WithLabelValues(from, to).Inc()
	middleware.Logger.InfoContext(ctx, "support ticket escalated",
		slog.String("ticket_id", ticket.ID),
		slog.String("from", from),
		slog.String("to", to),
	)

	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			UserID:    ticket.UserID,
			Type:      models.NotificationSystem,
			Title:     "Your ticket has been escalated",
			Message:   "Your support ticket \"" + ticket.Subject + "\" is now being handled by our " + to + ".",
			ActionURL: "/support/" + ticket.ID,
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to notify escalation",
				slog.String("ticket_id", ticket.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.flags.Enabled(featureflags.SupportEmail, ticket.UserID) {
		s.sendMail(ctx, ticket.UserID, func(rcpt mailer.Recipient) error {
			return s.mail.EscalationNotice(ctx, rcpt, ticket.ID, ticket.Subject, to)
		})
	}
}

// sendMail looks up the user's address and sends best effort.
func (s *SupportService) sendMail(ctx context.Context, userID string, send func(mailer.Recipient) error) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user == nil || user.Email == "" {
		return
	}
	if err := send(mailer.Recipient{Name: user.Name, Email: user.Email}); err != nil {
		middleware.Logger.WarnContext(ctx, "support email failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *SupportService) GetTicket(ctx context.Context, userID, ticketID string) (*TicketDetail, error) {
	ticket, err := s.ownedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Messages: msgs}, nil
}

func (s *SupportService) GetTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	return s.repo.ListTickets(ctx, userID)
}

func (s *SupportService) CloseTicket(ctx context.Context, userID, ticketID string) error {
	if _, err := s.ownedTicket(ctx, userID, ticketID); err != nil {
		return err
	}
	return s.repo.UpdateTicket(ctx, ticketID, map[string]interface{}{
		"status":     models.TicketClosed,
		"updated_at": s.now(),
	})
}

func (s *SupportService) RateInteraction(ctx context.Context, in RateInteractionInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if _, err := s.ownedTicket(ctx, in.UserID, in.TicketID); err != nil {
		return err
	}

	var feedback *string
	if in.Feedback != nil && *in.Feedback != "" {
		feedback = in.Feedback
	}
	return s.repo.UpdateTicket(ctx, in.TicketID, map[string]interface{}{
		"rating":     strconv.Itoa(in.Rating),
		"feedback":   feedback,
		"updated_at": s.now(),
	})
}

// ownedTicket loads a ticket and hides tickets of other users behind NOT_FOUND.
func (s *SupportService) ownedTicket(ctx context.Context, userID, ticketID string) (*models.SupportTicket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil || ticket.UserID != userID {
		return nil, models.NewNotFoundMessage("Ticket not found")
	}
	return ticket, nil
}
