// Package payments integrates the Stripe payment processor: customers, payment
// intents, subscriptions and signed webhooks.
package payments

import (
	"context"
	"errors"
	"time"

	"healthbuddy/internal/models"
)

// ErrNotConfigured is returned when no secret key (or webhook secret) is set.
var ErrNotConfigured = errors.New("payment processor not configured")

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// PaymentIntent is the subset of a processor payment intent the API returns.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Subscription is the subset of a processor subscription mirrored locally.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
	// ClientSecret of the first invoice's payment intent, when expanded.
	ClientSecret string
}

// Gateway is the payment processor surface used by the payment service.
type Gateway interface {
	FindOrCreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	CreatePaymentIntent(ctx context.Context, customerID string, amountMinor int64, currency string) (*PaymentIntent, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error)
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// Config holds processor credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// New returns a Stripe-backed gateway, or one that reports ErrNotConfigured
// for every call when no secret key is set.
func New(cfg Config) Gateway {
	if cfg.SecretKey == "" {
		return unconfigured{webhookSecret: cfg.WebhookSecret}
	}
	return newStripeGateway(cfg)
}

// MapSubscriptionStatus maps a processor subscription status to the local
// status set. Only "active" and "trialing" map to granting statuses; unknown
// values map to expired.
func MapSubscriptionStatus(status string) string {
	switch status {
	case "active":
		return models.SubscriptionActive
	case "trialing":
		return models.SubscriptionTrial
	case "incomplete":
		return models.SubscriptionIncomplete
	case "past_due":
		return models.SubscriptionPastDue
	case "canceled":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionExpired
	}
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

type unconfigured struct {
	webhookSecret string
}

func (unconfigured) FindOrCreateCustomer(context.Context, string, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (unconfigured) CreatePaymentIntent(context.Context, string, int64, string) (*PaymentIntent, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) CreateSubscription(context.Context, string, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) GetSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) CancelAtPeriodEnd(context.Context, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}

func (u unconfigured) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if u.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	return constructEvent(payload, signature, u.webhookSecret)
}
