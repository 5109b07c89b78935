package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"
	"healthbuddy/internal/payments"
	"healthbuddy/internal/repository"
)

// PaymentService drives the Stripe-backed checkout and keeps local
// subscription rows in sync with webhook deliveries.
type PaymentService struct {
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	gateway  payments.Gateway
	currency string
	now      Clock
}

func NewPaymentService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	gateway payments.Gateway,
	currency string,
	now Clock,
) *PaymentService {
	if currency == "" {
		currency = "gbp"
	}
	return &PaymentService{
		subs:     subs,
		users:    users,
		gateway:  gateway,
		currency: strings.ToLower(currency),
		now:      clockOrDefault(now),
	}
}

type PaymentIntentInput struct {
	UserID string
	PlanID string  `json:"planId" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type PaymentIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	CustomerID      string `json:"customerId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type SubscribeInput struct {
	UserID          string
	PlanID          string `json:"planId" validate:"required"`
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type SubscribeResult struct {
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
	ClientSecret   string `json:"clientSecret,omitempty"`
}

// CurrentSubscription is the subscription as last known to the processor.
type CurrentSubscription struct {
	ID                 string     `json:"id"`
	PlanID             string     `json:"planId"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd"`
	CanceledAt         *time.Time `json:"canceledAt"`
}

// gatewayError maps processor failures onto API errors.
func gatewayError(err error) error {
	if errors.Is(err, payments.ErrNotConfigured) {
		return models.NewUnavailableError("Payment processor not configured", err)
	}
	return models.NewInternalError(err)
}

func (s *PaymentService) customerFor(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewUnauthorizedError("User not found")
	}
	customerID, err := s.gateway.FindOrCreateCustomer(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return "", gatewayError(err)
	}
	return customerID, nil
}

// CreatePaymentIntent opens a charge for amount (major units) and records it as pending.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntentResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	customerID, err := s.customerFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, customerID, int64(math.Round(in.Amount*100)), s.currency)
	if err != nil {
		return nil, gatewayError(err)
	}

	now := s.now()
	if err := s.subs.CreateTransaction(ctx, &models.PaymentTransaction{
		ID:                    models.NewID("txn", in.UserID, now),
		UserID:                in.UserID,
		Amount:                fmt.Sprintf("%.2f", in.Amount),
		Currency:              strings.ToUpper(s.currency),
		Status:                models.TransactionPending,
		PaymentMethod:         "stripe",
		StripePaymentIntentID: intent.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}); err != nil {
		return nil, err
	}

	return &PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		CustomerID:      customerID,
		PaymentIntentID: intent.ID,
	}, nil
}

func (s *PaymentService) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	customerID, err := s.customerFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	priceID := in.PlanID
	plan, err := s.subs.GetPlan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan != nil && plan.StripePriceID != "" {
		priceID = plan.StripePriceID
	}

	remote, err := s.gateway.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, gatewayError(err)
	}

	now := s.now()
	local, err := s.subs.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	create := local == nil
	if create {
		local = &models.UserSubscription{
			ID:        models.NewID("sub", in.UserID, now),
			UserID:    in.UserID,
			CreatedAt: now,
		}
	}
	local.PlanID = in.PlanID
	local.StripeCustomerID = customerID
	local.StripeSubscriptionID = remote.ID
	local.Status = payments.MapSubscriptionStatus(remote.Status)
	local.TrialEndsAt = nil
	local.CurrentPeriodStart = remote.CurrentPeriodStart
	local.CurrentPeriodEnd = remote.CurrentPeriodEnd
	local.CanceledAt = remote.CanceledAt
	local.UpdatedAt = now

	if create {
		err = s.subs.Create(ctx, local)
	} else {
		err = s.subs.Save(ctx, local)
	}
	if err != nil {
		return nil, err
	}

	return &SubscribeResult{
		SubscriptionID: remote.ID,
		Status:         remote.Status,
		ClientSecret:   remote.ClientSecret,
	}, nil
}

// GetCurrentSubscription never fails: lookup errors are logged and reported as nil.
func (s *PaymentService) GetCurrentSubscription(ctx context.Context, userID string) *CurrentSubscription {
	local, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		s.logFailure(ctx, "get_subscription", userID, err)
		return nil
	}
	if local == nil {
		return nil
	}

	current := &CurrentSubscription{
		ID:                 local.ID,
		PlanID:             local.PlanID,
		Status:             local.Status,
		CurrentPeriodStart: local.CurrentPeriodStart,
		CurrentPeriodEnd:   local.CurrentPeriodEnd,
		CanceledAt:         local.CanceledAt,
	}
	if local.StripeSubscriptionID == "" {
		return current
	}

	remote, err := s.gateway.GetSubscription(ctx, local.StripeSubscriptionID)
	if err != nil {
		s.logFailure(ctx, "get_subscription", userID, err)
		return nil
	}
	current.Status = remote.Status
	current.CurrentPeriodStart = remote.CurrentPeriodStart
	current.CurrentPeriodEnd = remote.CurrentPeriodEnd
	current.CanceledAt = remote.CanceledAt
	return current
}

// CancelSubscription stops renewal at period end and marks the local row canceled.
// subscriptionID may be the local id or the processor id.
func (s *PaymentService) CancelSubscription(ctx context.Context, userID, subscriptionID string) (*Success, error) {
	local, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if local == nil || (subscriptionID != "" && subscriptionID != local.ID && subscriptionID != local.StripeSubscriptionID) {
		return nil, models.NewNotFoundMessage("Subscription not found")
	}

	if local.StripeSubscriptionID != "" {
		if _, err := s.gateway.CancelAtPeriodEnd(ctx, local.StripeSubscriptionID); err != nil {
			return nil, gatewayError(err)
		}
	}

	now := s.now()
	local.Status = models.SubscriptionCanceled
	local.CanceledAt = &now
	local.UpdatedAt = now
	if err := s.subs.Save(ctx, local); err != nil {
		return nil, err
	}
	return &Success{Success: true}, nil
}

// Webhook outcomes recorded on the payment webhook metric.
const (
	webhookProcessed = "processed"
	webhookIgnored   = "ignored"
	webhookFailed    = "error"
	webhookRejected  = "invalid_signature"
)

// HandleWebhook verifies a processor delivery and applies it. An unverifiable
// delivery is a VALIDATION_ERROR; unknown event types are acknowledged.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return gatewayError(err)
		}
		observability.PaymentWebhookEvents.WithLabelValues("unknown", webhookRejected).Inc()
		return models.NewValidationError("Invalid webhook signature")
	}

	result, err := s.applyEvent(ctx, evt)
	if err != nil {
		observability.PaymentWebhookEvents.WithLabelValues(evt.Type, webhookFailed).Inc()
		s.logFailure(ctx, "webhook_"+evt.Type, evt.ObjectID, err)
		return err
	}
	observability.PaymentWebhookEvents.WithLabelValues(evt.Type, result).Inc()
	return nil
}

func (s *PaymentService) applyEvent(ctx context.Context, evt *payments.WebhookEvent) (string, error) {
	switch evt.Type {
	case payments.EventPaymentSucceeded, payments.EventPaymentFailed:
		status := models.TransactionSucceeded
		if evt.Type == payments.EventPaymentFailed {
			status = models.TransactionFailed
		}
		n, err := s.subs.UpdateTransactionStatus(ctx, evt.ObjectID, status)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return webhookIgnored, nil
		}
		return webhookProcessed, nil

	case payments.EventSubscriptionUpdated, payments.EventSubscriptionDeleted:
		local, err := s.subs.GetByStripeSubscriptionID(ctx, evt.ObjectID)
		if err != nil {
			return "", err
		}
		if local == nil {
			return webhookIgnored, nil
		}
		local.Status = payments.MapSubscriptionStatus(evt.Status)
		if evt.Type == payments.EventSubscriptionDeleted {
			local.Status = models.SubscriptionCanceled
		}
		if evt.CurrentPeriodStart != nil {
			local.CurrentPeriodStart = evt.CurrentPeriodStart
		}
		if evt.CurrentPeriodEnd != nil {
			local.CurrentPeriodEnd = evt.CurrentPeriodEnd
		}
		if evt.CanceledAt != nil {
			local.CanceledAt = evt.CanceledAt
		}
		local.UpdatedAt = s.now()
		if err := s.subs.Save(ctx, local); err != nil {
			return "", err
		}
		return webhookProcessed, nil

	default:
		return webhookIgnored, nil
	}
}

func (s *PaymentService) logFailure(ctx context.Context, op, subject string, err error) {
	middleware.Logger.ErrorContext(ctx, "payment operation failed",
		slog.String("operation", op),
		slog.String("subject", subject),
		slog.String("error", err.Error()),
	)
}
