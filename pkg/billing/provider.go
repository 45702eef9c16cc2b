package billing

import (
	"context"
	"time"
)

// Provider abstracts a hosted-billing payment processor. Implementations
// wrap the official SDKs, verify webhook signatures, and normalize provider
// events into WebhookEvent so the reconciler stays provider-agnostic.
type Provider interface {
	// Name identifies the provider in logs and stored references.
	Name() string

	// CreateCheckout creates a hosted checkout session for the given price.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// VerifyAndParse validates the webhook signature against the shared
	// secret and returns the normalized event. Returns ErrInvalidSignature
	// on verification failure; no caller may act on an unverified payload.
	VerifyAndParse(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CustomerCreator is implemented by providers that require a customer
// object to exist before checkout.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
}

// SubscriptionManager is implemented by providers that support server-side
// cancel and reactivate. Cancel schedules termination at period end;
// Reactivate clears a pending cancellation before it takes effect.
type SubscriptionManager interface {
	Cancel(ctx context.Context, subscriptionID string) error
	Reactivate(ctx context.Context, subscriptionID string) error
}

// CheckoutRequest contains everything needed to start a hosted checkout.
type CheckoutRequest struct {
	PriceRef   string // provider's price identifier
	UserID     string // our user ID, echoed back in the webhook
	CustomerID string // provider customer reference, empty on first purchase
	Email      string
	PlanID     string // stored in checkout metadata for reconciliation
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted checkout the user is redirected to.
type CheckoutSession struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}
