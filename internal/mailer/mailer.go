// Package mailer sends transactional support emails through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/observability"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrSendFailed is returned when the provider answers with a non-2xx status.
var ErrSendFailed = errors.New("email provider rejected message")

// Recipient identifies who receives an email.
type Recipient struct {
	Name  string
	Email string
}

// Mailer sends the support emails.
type Mailer interface {
	TicketReceipt(ctx context.Context, to Recipient, ticketID, subject string) error
	EscalationNotice(ctx context.Context, to Recipient, ticketID, subject, agent string) error
}

// Config holds sender identity and credentials.
type Config struct {
	APIKey      string
	FromAddress string
	FromName    string
}

// New returns a SendGrid mailer, or a mailer that only logs when no API key is set.
func New(cfg Config) Mailer {
	if cfg.APIKey == "" {
		return noopMailer{}
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

// SendGridMailer delivers mail via the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *SendGridMailer) TicketReceipt(ctx context.Context, to Recipient, ticketID, subject string) error {
	msg := ticketReceipt(m.from, to, ticketID, subject)
	return m.send(ctx, "ticket_receipt", msg)
}

func (m *SendGridMailer) EscalationNotice(ctx context.Context, to Recipient, ticketID, subject, agent string) error {
	msg := escalationNotice(m.from, to, ticketID, subject, agent)
	return m.send(ctx, "escalation_notice", msg)
}

func (m *SendGridMailer) send(ctx context.Context, kind string, msg *mail.SGMailV3) error {
	span, ctx := observability.StartClientSpan(ctx, "sendgrid", kind)
	defer span.End()

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("send %s: %w", kind, err)
	}
	if resp.StatusCode >= 300 {
		err = fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
		span.SetError(err)
		return err
	}
	middleware.Logger.InfoContext(ctx, "email sent",
		slog.String("kind", kind),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

func ticketReceipt(from *mail.Email, to Recipient, ticketID, subject string) *mail.SGMailV3 {
	title := fmt.Sprintf("We received your support request: %s", subject)
	plain := fmt.Sprintf(
		"Hi %s,\n\nThanks for contacting HealthBuddy support. Your ticket %s (%q) is open and our support team is on it.\n",
		displayName(to), ticketID, subject,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for contacting HealthBuddy support. Your ticket <strong>%s</strong> (%s) is open and our support team is on it.</p>",
		html.EscapeString(displayName(to)), html.EscapeString(ticketID), html.EscapeString(subject),
	)
	return mail.NewSingleEmail(from, title, mail.NewEmail(to.Name, to.Email), plain, body)
}

func escalationNotice(from *mail.Email, to Recipient, ticketID, subject, agent string) *mail.SGMailV3 {
	title := fmt.Sprintf("Your support ticket has been escalated: %s", subject)
	plain := fmt.Sprintf(
		"Hi %s,\n\nYour ticket %s (%q) has been passed to our %s for further help.\n",
		displayName(to), ticketID, subject, agent,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your ticket <strong>%s</strong> (%s) has been passed to our %s for further help.</p>",
		html.EscapeString(displayName(to)), html.EscapeString(ticketID), html.EscapeString(subject), html.EscapeString(agent),
	)
	return mail.NewSingleEmail(from, title, mail.NewEmail(to.Name, to.Email), plain, body)
}

func displayName(to Recipient) string {
	if to.Name != "" {
		return to.Name
	}
	return "there"
}

type noopMailer struct{}

func (noopMailer) TicketReceipt(ctx context.Context, to Recipient, ticketID, _ string) error {
	middleware.Logger.DebugContext(ctx, "mailer disabled, skipping ticket receipt", slog.String("ticket_id", ticketID))
	return nil
}

func (noopMailer) EscalationNotice(ctx context.Context, to Recipient, ticketID, _, agent string) error {
	middleware.Logger.DebugContext(ctx, "mailer disabled, skipping escalation notice",
		slog.String("ticket_id", ticketID),
		slog.String("agent", agent),
	)
	return nil
}
