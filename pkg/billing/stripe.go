package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/replyforge/replyforge/pkg/plan"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider, CustomerCreator and
// SubscriptionManager on top of the official Stripe SDK.
type StripeProvider struct {
	sc     *client.API
	config StripeConfig
}

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}

	sc := &client.API{}
	sc.Init(config.SecretKey, nil)

	return &StripeProvider{sc: sc, config: config}, nil
}

func (p *StripeProvider) Name() string { return "stripe" }

// CreateCustomer creates a Stripe customer carrying our user ID in
// metadata so webhook payloads can be correlated back.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	cust, err := p.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckout starts a subscription-mode hosted checkout session.
func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceRef == "" {
		return nil, errors.New("price reference is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("plan_id", req.PlanID)
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}

	return &CheckoutSession{
		URL:       sess.URL,
		SessionID: sess.ID,
		ExpiresAt: unixTime(sess.ExpiresAt),
	}, nil
}

// Cancel schedules the subscription to terminate at period end so the user
// keeps access they already paid for.
func (p *StripeProvider) Cancel(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := p.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("failed to cancel stripe subscription: %w", err)
	}
	return nil
}

// Reactivate clears a pending cancellation before it takes effect.
func (p *StripeProvider) Reactivate(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx

	if _, err := p.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("failed to reactivate stripe subscription: %w", err)
	}
	return nil
}

// VerifyAndParse validates the Stripe-Signature header and normalizes the
// event. Unrecognized event types come back with the raw provider name as
// Type so the reconciler can log and acknowledge them.
func (p *StripeProvider) VerifyAndParse(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	ev := &WebhookEvent{
		Type:          EventType(event.Type),
		ProviderEvent: string(event.Type),
		Raw:           event.Data.Object,
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev.Type = EventCheckoutCompleted
		ev.CorrelationID = sess.ClientReferenceID
		ev.PlanID = plan.ID(sess.Metadata["plan_id"])
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			ev.SubscriptionID = sess.Subscription.ID
			p.enrichFromSubscription(ctx, ev)
		}

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev.Type = EventPaymentSucceeded
		if event.Type == "invoice.payment_failed" {
			ev.Type = EventPaymentFailed
		}
		if inv.Customer != nil {
			ev.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			ev.SubscriptionID = inv.Subscription.ID
		}
		ev.PeriodEnd = invoicePeriodEnd(&inv)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev.Type = EventSubscriptionUpdated
		if event.Type == "customer.subscription.deleted" {
			ev.Type = EventSubscriptionDeleted
		}
		applySubscription(ev, &sub)
	}

	return ev, nil
}

// enrichFromSubscription fetches the subscription created by a checkout to
// learn the billing period end and price. Checkout payloads do not carry
// either. Lookup failures leave the fields zero; the reconciler falls back
// to a one-month period.
func (p *StripeProvider) enrichFromSubscription(ctx context.Context, ev *WebhookEvent) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.sc.Subscriptions.Get(ev.SubscriptionID, params)
	if err != nil {
		return
	}
	applySubscription(ev, sub)
}

func applySubscription(ev *WebhookEvent, sub *stripe.Subscription) {
	ev.SubscriptionID = sub.ID
	ev.Status = string(sub.Status)
	ev.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	ev.PeriodEnd = unixTime(sub.CurrentPeriodEnd)
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.Metadata != nil && ev.CorrelationID == "" {
		ev.CorrelationID = sub.Metadata["user_id"]
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceRef = sub.Items.Data[0].Price.ID
	}
}

func invoicePeriodEnd(inv *stripe.Invoice) time.Time {
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line.Period != nil && line.Period.End > 0 {
				return unixTime(line.Period.End)
			}
		}
	}
	return unixTime(inv.PeriodEnd)
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
