package payments

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tidwall/gjson"
)

// Webhook event types handled by the payment service.
const (
	EventPaymentSucceeded    = "payment_intent.succeeded"
	EventPaymentFailed       = "payment_intent.payment_failed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// WebhookEvent is a verified event reduced to the fields the service acts on.
type WebhookEvent struct {
	ID   string
	Type string
	// ObjectID is data.object.id: a payment intent or subscription id.
	ObjectID           string
	Status             string
	CustomerID         string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
}

func constructEvent(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := ParseEventObject(string(event.Type), event.Data.Raw)
	out.ID = event.ID
	return out, nil
}

// ParseEventObject extracts ids, status and billing period from a raw event
// data.object. Missing fields are left zero.
func ParseEventObject(eventType string, object []byte) *WebhookEvent {
	obj := gjson.ParseBytes(object)
	return &WebhookEvent{
		Type:               eventType,
		ObjectID:           obj.Get("id").String(),
		Status:             obj.Get("status").String(),
		CustomerID:         obj.Get("customer").String(),
		CurrentPeriodStart: unixTime(obj.Get("current_period_start").Int()),
		CurrentPeriodEnd:   unixTime(obj.Get("current_period_end").Int()),
		CanceledAt:         unixTime(obj.Get("canceled_at").Int()),
	}
}
