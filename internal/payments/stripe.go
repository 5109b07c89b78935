package payments

import (
	"context"
	"fmt"

	"healthbuddy/internal/observability"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type stripeGateway struct {
	sc            *client.API
	webhookSecret string
}

func newStripeGateway(cfg Config) *stripeGateway {
	return &stripeGateway{
		sc:            client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *stripeGateway) FindOrCreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	span, ctx := observability.StartClientSpan(ctx, "stripe", "customers.find_or_create")
	defer span.End()

	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	listParams.Context = ctx

	iter := g.sc.Customers.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		span.SetError(err)
		return "", fmt.Errorf("list customers: %w", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)

	cust, err := g.sc.Customers.New(params)
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, customerID string, amountMinor int64, currency string) (*PaymentIntent, error) {
	span, ctx := observability.StartClientSpan(ctx, "stripe", "payment_intents.create")
	defer span.End()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *stripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	span, ctx := observability.StartClientSpan(ctx, "stripe", "subscriptions.create")
	defer span.End()

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.AddExpand("latest_invoice.payment_intent")
	params.Context = ctx

	sub, err := g.sc.Subscriptions.New(params)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *stripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	span, ctx := observability.StartClientSpan(ctx, "stripe", "subscriptions.get")
	defer span.End()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.sc.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *stripeGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	span, ctx := observability.StartClientSpan(ctx, "stripe", "subscriptions.cancel_at_period_end")
	defer span.End()

	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx

	sub, err := g.sc.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *stripeGateway) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	return constructEvent(payload, signature, g.webhookSecret)
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CanceledAt:         unixTime(sub.CanceledAt),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
