package billing

import (
	"time"

	"github.com/replyforge/replyforge/pkg/plan"
)

// EventType is the normalized billing event vocabulary. Each provider
// implementation maps its own event names to these before the reconciler
// sees them.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_completed"
	EventPaymentSucceeded    EventType = "payment_succeeded"
	EventPaymentFailed       EventType = "payment_failed"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
)

// WebhookEvent is a provider-neutral view of one inbound billing event,
// produced by Provider.VerifyAndParse after signature verification.
type WebhookEvent struct {
	Type          EventType
	ProviderEvent string // original provider event name, for logging

	// CorrelationID carries our user ID when the provider echoes it back
	// (checkout metadata / client reference). Empty for events resolved by
	// customer ID alone.
	CorrelationID string

	CustomerID     string // provider's customer reference
	SubscriptionID string // provider's subscription reference
	PriceRef       string // provider's price identifier, resolved via the plan catalog
	PlanID         plan.ID

	Status            string // provider's raw subscription status
	CancelAtPeriodEnd bool
	PeriodEnd         time.Time // zero when the provider did not report one

	Raw map[string]any
}
