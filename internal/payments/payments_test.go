package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"healthbuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	unix := ts.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := mac.Write([]byte(fmt.Sprintf("%d.%s", unix, payload)))
	require.NoError(t, err)
	return fmt.Sprintf("t=%d,v1=%s", unix, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEvent() []byte {
	return []byte(`{
		"id": "evt_123",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_stripe_1",
				"object": "subscription",
				"customer": "cus_42",
				"status": "past_due",
				"current_period_start": 1700000000,
				"current_period_end": 1702592000,
				"canceled_at": null
			}
		}
	}`)
}

func TestMapSubscriptionStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"active":             models.SubscriptionActive,
		"trialing":           models.SubscriptionTrial,
		"canceled":           models.SubscriptionCanceled,
		"incomplete_expired": models.SubscriptionExpired,
		"unpaid":             models.SubscriptionExpired,
		"paused":             models.SubscriptionExpired,
		"incomplete":         models.SubscriptionIncomplete,
		"past_due":           models.SubscriptionPastDue,
		"some_future_state":  models.SubscriptionExpired,
		"":                   models.SubscriptionExpired,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapSubscriptionStatus(in), in)
	}
}

func TestParseEventObject(t *testing.T) {
	t.Parallel()

	ev := ParseEventObject(EventSubscriptionDeleted, []byte(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "canceled",
		"current_period_start": 1700000000,
		"current_period_end": 1702592000,
		"canceled_at": 1701000000
	}`))

	assert.Equal(t, EventSubscriptionDeleted, ev.Type)
	assert.Equal(t, "sub_1", ev.ObjectID)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "canceled", ev.Status)
	require.NotNil(t, ev.CurrentPeriodStart)
	assert.Equal(t, int64(1700000000), ev.CurrentPeriodStart.Unix())
	require.NotNil(t, ev.CurrentPeriodEnd)
	assert.Equal(t, int64(1702592000), ev.CurrentPeriodEnd.Unix())
	require.NotNil(t, ev.CanceledAt)
	assert.Equal(t, int64(1701000000), ev.CanceledAt.Unix())
}

func TestParseEventObject_PaymentIntentHasNoPeriods(t *testing.T) {
	t.Parallel()

	ev := ParseEventObject(EventPaymentSucceeded, []byte(`{"id":"pi_1","status":"succeeded","amount":500}`))

	assert.Equal(t, "pi_1", ev.ObjectID)
	assert.Equal(t, "succeeded", ev.Status)
	assert.Nil(t, ev.CurrentPeriodStart)
	assert.Nil(t, ev.CurrentPeriodEnd)
	assert.Nil(t, ev.CanceledAt)
}

func TestConstructEvent_ValidSignature(t *testing.T) {
	t.Parallel()

	payload := subscriptionEvent()
	sig := signPayload(t, payload, testWebhookSecret, time.Now())

	ev, err := constructEvent(payload, sig, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", ev.ID)
	assert.Equal(t, EventSubscriptionUpdated, ev.Type)
	assert.Equal(t, "sub_stripe_1", ev.ObjectID)
	assert.Equal(t, "past_due", ev.Status)
	assert.Nil(t, ev.CanceledAt)
}

func TestConstructEvent_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	payload := subscriptionEvent()
	sig := signPayload(t, payload, "whsec_other", time.Now())

	_, err := constructEvent(payload, sig, testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_RejectsStaleTimestamp(t *testing.T) {
	t.Parallel()

	payload := subscriptionEvent()
	sig := signPayload(t, payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, err := constructEvent(payload, sig, testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestNew_UnconfiguredGateway(t *testing.T) {
	t.Parallel()

	gw := New(Config{})
	ctx := context.Background()

	_, err := gw.FindOrCreateCustomer(ctx, "u1", "a@b.c", "A")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = gw.CreatePaymentIntent(ctx, "cus_1", 500, "gbp")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = gw.CreateSubscription(ctx, "cus_1", "price_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = gw.GetSubscription(ctx, "sub_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = gw.CancelAtPeriodEnd(ctx, "sub_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = gw.ConstructEvent(subscriptionEvent(), "t=1,v1=00")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_UnconfiguredGatewayStillVerifiesWebhooks(t *testing.T) {
	t.Parallel()

	gw := New(Config{WebhookSecret: testWebhookSecret})
	payload := subscriptionEvent()

	ev, err := gw.ConstructEvent(payload, signPayload(t, payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "sub_stripe_1", ev.ObjectID)
}

func TestNew_ConfiguredGatewayIsStripe(t *testing.T) {
	t.Parallel()

	gw := New(Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	_, ok := gw.(*stripeGateway)
	assert.True(t, ok)
}
