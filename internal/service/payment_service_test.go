package service

import (
	"context"
	"testing"
	"time"

	"healthbuddy/internal/models"
	"healthbuddy/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(gw payments.Gateway) (*PaymentService, *subscriptionRepoStub) {
	subs := newSubscriptionRepoStub()
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Name: "Ada", Email: "ada@example.com"}, nil
	}
	return NewPaymentService(subs, users, gw, "GBP", fixedClock), subs
}

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	t.Parallel()

	gw := &gatewayStub{customerID: "cus_1", intent: &payments.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	svc, subs := newPaymentFixture(gw)

	res, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{UserID: "u1", PlanID: models.PlanPremium, Amount: 12.34})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, "cus_1", res.CustomerID)
	assert.Equal(t, "pi_1", res.PaymentIntentID)
	assert.Equal(t, int64(1234), gw.intentAmount)

	require.Len(t, subs.transactions, 1)
	assert.Equal(t, models.TransactionPending, subs.transactions[0].Status)
	assert.Equal(t, "pi_1", subs.transactions[0].StripePaymentIntentID)
	assert.Equal(t, "GBP", subs.transactions[0].Currency)

	_, err = svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{UserID: "u1", PlanID: models.PlanPremium, Amount: 0})
	assertAppError(t, err, models.CodeValidation)
}

func TestPaymentService_Unconfigured(t *testing.T) {
	t.Parallel()
	svc, _ := newPaymentFixture(payments.New(payments.Config{}))

	_, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{UserID: "u1", PlanID: models.PlanBasic, Amount: 5})
	assertAppError(t, err, models.CodeUnavailable)

	err = svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assertAppError(t, err, models.CodeUnavailable)
}

func TestPaymentService_Subscribe(t *testing.T) {
	t.Parallel()

	start := fixedNow
	end := fixedNow.AddDate(0, 1, 0)
	gw := &gatewayStub{
		customerID: "cus_1",
		sub: &payments.Subscription{ID: "sub_stripe_1", Status: "incomplete", ClientSecret: "cs_1",
			CurrentPeriodStart: &start, CurrentPeriodEnd: &end},
	}
	svc, subs := newPaymentFixture(gw)

	res, err := svc.Subscribe(context.Background(), SubscribeInput{UserID: "u1", PlanID: models.PlanPremium, PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, "sub_stripe_1", res.SubscriptionID)
	assert.Equal(t, "incomplete", res.Status)
	assert.Equal(t, "cs_1", res.ClientSecret)
	assert.Equal(t, "price_premium", gw.priceID)

	local := subs.subs["u1"]
	require.NotNil(t, local)
	assert.Equal(t, "sub_stripe_1", local.StripeSubscriptionID)
	assert.Equal(t, "cus_1", local.StripeCustomerID)
	assert.Equal(t, models.SubscriptionIncomplete, local.Status)
	assert.Equal(t, end, *local.CurrentPeriodEnd)

	access := accessFor(local, "exclusive")
	assert.False(t, access.HasAccess)
	assert.Equal(t, "Subscription expired or inactive", access.Reason)

	_, err = svc.Subscribe(context.Background(), SubscribeInput{UserID: "u1", PlanID: models.PlanBasic, PaymentIntentID: "pi_2"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, gw.priceID)
	assert.Len(t, subs.subs, 1)
}

func TestPaymentService_GetCurrentSubscription(t *testing.T) {
	t.Parallel()

	gw := &gatewayStub{sub: &payments.Subscription{ID: "sub_stripe_1", Status: "past_due"}}
	svc, subs := newPaymentFixture(gw)

	assert.Nil(t, svc.GetCurrentSubscription(context.Background(), "u1"))

	subs.subs["u1"] = &models.UserSubscription{ID: "s1", UserID: "u1", PlanID: models.PlanBasic, Status: models.SubscriptionTrial}
	current := svc.GetCurrentSubscription(context.Background(), "u1")
	require.NotNil(t, current)
	assert.Equal(t, models.SubscriptionTrial, current.Status)

	subs.subs["u1"].StripeSubscriptionID = "sub_stripe_1"
	current = svc.GetCurrentSubscription(context.Background(), "u1")
	require.NotNil(t, current)
	assert.Equal(t, "s1", current.ID)
	assert.Equal(t, "past_due", current.Status)

	gw.err = errBoom
	assert.Nil(t, svc.GetCurrentSubscription(context.Background(), "u1"))
}

func TestPaymentService_CancelSubscription(t *testing.T) {
	t.Parallel()

	gw := &gatewayStub{sub: &payments.Subscription{ID: "sub_stripe_1"}}
	svc, subs := newPaymentFixture(gw)

	_, err := svc.CancelSubscription(context.Background(), "u1", "s1")
	assertAppError(t, err, models.CodeNotFound)

	subs.subs["u1"] = &models.UserSubscription{ID: "s1", UserID: "u1", Status: models.SubscriptionActive, StripeSubscriptionID: "sub_stripe_1"}

	_, err = svc.CancelSubscription(context.Background(), "u1", "someone_elses")
	assertAppError(t, err, models.CodeNotFound)

	res, err := svc.CancelSubscription(context.Background(), "u1", "sub_stripe_1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"sub_stripe_1"}, gw.canceled)
	assert.Equal(t, models.SubscriptionCanceled, subs.subs["u1"].Status)
	assert.Equal(t, fixedNow, *subs.subs["u1"].CanceledAt)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	t.Parallel()

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPaymentFixture(&gatewayStub{})

		err := svc.HandleWebhook(context.Background(), []byte(`{}`), "forged")
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("payment succeeded updates transaction", func(t *testing.T) {
		t.Parallel()
		gw := &gatewayStub{event: &payments.WebhookEvent{Type: payments.EventPaymentSucceeded, ObjectID: "pi_1"}}
		svc, subs := newPaymentFixture(gw)
		subs.transactions = []models.PaymentTransaction{{ID: "txn_1", StripePaymentIntentID: "pi_1", Status: models.TransactionPending}}

		require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
		assert.Equal(t, models.TransactionSucceeded, subs.transactions[0].Status)
	})

	t.Run("payment failed", func(t *testing.T) {
		t.Parallel()
		gw := &gatewayStub{event: &payments.WebhookEvent{Type: payments.EventPaymentFailed, ObjectID: "pi_1"}}
		svc, subs := newPaymentFixture(gw)
		subs.transactions = []models.PaymentTransaction{{ID: "txn_1", StripePaymentIntentID: "pi_1", Status: models.TransactionPending}}

		require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
		assert.Equal(t, models.TransactionFailed, subs.transactions[0].Status)
	})

	t.Run("subscription sync", func(t *testing.T) {
		t.Parallel()
		end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		gw := &gatewayStub{event: &payments.WebhookEvent{
			Type: payments.EventSubscriptionUpdated, ObjectID: "sub_stripe_1", Status: "unpaid", CurrentPeriodEnd: &end,
		}}
		svc, subs := newPaymentFixture(gw)
		subs.subs["u1"] = &models.UserSubscription{ID: "s1", UserID: "u1", Status: models.SubscriptionActive, StripeSubscriptionID: "sub_stripe_1"}

		require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
		assert.Equal(t, models.SubscriptionExpired, subs.subs["u1"].Status)
		assert.Equal(t, end, *subs.subs["u1"].CurrentPeriodEnd)
	})

	t.Run("subscription deleted cancels", func(t *testing.T) {
		t.Parallel()
		gw := &gatewayStub{event: &payments.WebhookEvent{Type: payments.EventSubscriptionDeleted, ObjectID: "sub_stripe_1", Status: "active"}}
		svc, subs := newPaymentFixture(gw)
		subs.subs["u1"] = &models.UserSubscription{ID: "s1", UserID: "u1", Status: models.SubscriptionActive, StripeSubscriptionID: "sub_stripe_1"}

		require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
		assert.Equal(t, models.SubscriptionCanceled, subs.subs["u1"].Status)
	})

	t.Run("unknown event is acknowledged", func(t *testing.T) {
		t.Parallel()
		gw := &gatewayStub{event: &payments.WebhookEvent{Type: "invoice.created", ObjectID: "in_1"}}
		svc, _ := newPaymentFixture(gw)

		assert.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
	})
}
