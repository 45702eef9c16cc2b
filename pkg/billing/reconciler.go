package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/plan"
)

// Reconciler applies verified webhook events to local subscription state.
//
// Webhook delivery is at-least-once and unordered, so every handler is
// written as an absolute assignment of the target state rather than a
// relative mutation: replaying an event lands on the same final state.
// Events for customers with no local user are logged and acknowledged so
// the provider does not retry them forever.
type Reconciler struct {
	users auth.UserStore
	plans *plan.Catalog
	log   *slog.Logger
	now   func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.log = log }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler creates a Reconciler.
func NewReconciler(users auth.UserStore, plans *plan.Catalog, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		users: users,
		plans: plans,
		log:   logger.NewDiscard(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent applies one verified event. A nil return means the provider
// should be acknowledged; a non-nil return means the store write failed and
// the provider should retry delivery.
func (r *Reconciler) HandleEvent(ctx context.Context, ev *WebhookEvent) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return r.applyCheckout(ctx, ev)
	case EventPaymentSucceeded:
		return r.applyPaymentSucceeded(ctx, ev)
	case EventPaymentFailed:
		return r.applyPaymentFailed(ctx, ev)
	case EventSubscriptionUpdated:
		return r.applySubscriptionUpdated(ctx, ev)
	case EventSubscriptionDeleted:
		return r.applySubscriptionDeleted(ctx, ev)
	default:
		// Acknowledge event types we do not act on to prevent retry storms.
		r.log.InfoContext(ctx, "ignoring unhandled billing event",
			logger.EventType(ev.ProviderEvent),
			logger.Component("billing"),
		)
		return nil
	}
}

// applyCheckout activates the purchased plan. The user is found through the
// correlation ID embedded at checkout time, falling back to the provider
// customer reference for replays that lost metadata.
func (r *Reconciler) applyCheckout(ctx context.Context, ev *WebhookEvent) error {
	user := r.resolveUser(ctx, ev)
	if user == nil {
		return nil
	}

	purchased, err := r.resolvePlan(ev)
	if err != nil {
		r.log.ErrorContext(ctx, "checkout references unknown plan",
			logger.UserID(user.ID),
			logger.EventType(ev.ProviderEvent),
			logger.Error(err),
			logger.Component("billing"),
		)
		return nil
	}

	endsAt := r.periodEnd(ev)
	user.PlanID = purchased.ID
	user.MonthlyQuota = purchased.MonthlyQuota
	user.SubscriptionStatus = auth.StatusActive
	user.SubscriptionEndsAt = &endsAt
	if ev.CustomerID != "" {
		user.ProviderCustomerID = ev.CustomerID
	}
	if ev.SubscriptionID != "" {
		user.ProviderSubID = ev.SubscriptionID
	}

	if err := r.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to apply checkout: %w", err)
	}

	r.log.InfoContext(ctx, "subscription activated",
		logger.UserID(user.ID),
		logger.Plan(purchased.ID),
		logger.Component("billing"),
	)
	return nil
}

func (r *Reconciler) applyPaymentSucceeded(ctx context.Context, ev *WebhookEvent) error {
	user := r.resolveUser(ctx, ev)
	if user == nil {
		return nil
	}

	endsAt := r.periodEnd(ev)
	user.SubscriptionStatus = auth.StatusActive
	user.SubscriptionEndsAt = &endsAt
	if ev.SubscriptionID != "" {
		user.ProviderSubID = ev.SubscriptionID
	}

	if err := r.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to apply payment: %w", err)
	}
	return nil
}

// applyPaymentFailed marks the account past due. Expiry is untouched: the
// user keeps access until the already-paid period runs out.
func (r *Reconciler) applyPaymentFailed(ctx context.Context, ev *WebhookEvent) error {
	user := r.resolveUser(ctx, ev)
	if user == nil {
		return nil
	}

	user.SubscriptionStatus = auth.StatusPastDue

	if err := r.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to mark past due: %w", err)
	}

	r.log.WarnContext(ctx, "payment failed, subscription past due",
		logger.UserID(user.ID),
		logger.CustomerID(ev.CustomerID),
		logger.Component("billing"),
	)
	return nil
}

// applySubscriptionUpdated mirrors the provider's subscription state. A
// pending cancel-at-period-end is stored as cancelled even while the
// provider still reports active: local status reflects the user's intent,
// and access is governed by the expiry timestamp either way.
func (r *Reconciler) applySubscriptionUpdated(ctx context.Context, ev *WebhookEvent) error {
	user := r.resolveUser(ctx, ev)
	if user == nil {
		return nil
	}

	if ev.CancelAtPeriodEnd {
		user.SubscriptionStatus = auth.StatusCancelled
	} else {
		user.SubscriptionStatus = mapProviderStatus(ev.Status)
	}
	if !ev.PeriodEnd.IsZero() {
		endsAt := ev.PeriodEnd
		user.SubscriptionEndsAt = &endsAt
	}
	if ev.SubscriptionID != "" {
		user.ProviderSubID = ev.SubscriptionID
	}
	if ev.PriceRef != "" {
		if purchased, err := r.plans.ByPriceRef(ev.PriceRef); err == nil {
			user.PlanID = purchased.ID
			user.MonthlyQuota = purchased.MonthlyQuota
		}
	}

	if err := r.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to apply subscription update: %w", err)
	}
	return nil
}

// applySubscriptionDeleted reverts the user to the free tier immediately.
func (r *Reconciler) applySubscriptionDeleted(ctx context.Context, ev *WebhookEvent) error {
	user := r.resolveUser(ctx, ev)
	if user == nil {
		return nil
	}

	free := r.plans.MustGet(plan.Free)
	now := r.now().UTC()
	user.PlanID = free.ID
	user.MonthlyQuota = free.MonthlyQuota
	user.SubscriptionStatus = auth.StatusCancelled
	user.SubscriptionEndsAt = &now
	user.ProviderSubID = ""

	if err := r.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to apply subscription deletion: %w", err)
	}

	r.log.InfoContext(ctx, "subscription deleted, reverted to free tier",
		logger.UserID(user.ID),
		logger.Component("billing"),
	)
	return nil
}

// resolveUser finds the local user for an event, trying the correlation ID
// first and the provider customer reference second. A nil return means no
// local user matched; the caller acknowledges the event. Webhook delivery
// can race account deactivation or carry provider test data, so a miss must
// never fail the handler.
func (r *Reconciler) resolveUser(ctx context.Context, ev *WebhookEvent) *auth.User {
	if ev.CorrelationID != "" {
		if id, err := uuid.Parse(ev.CorrelationID); err == nil {
			user, err := r.users.ByID(ctx, id)
			if err == nil {
				return user
			}
		}
	}
	if ev.CustomerID != "" {
		user, err := r.users.ByProviderCustomerID(ctx, ev.CustomerID)
		if err == nil {
			return user
		}
	}

	r.log.WarnContext(ctx, "billing event matched no local user",
		logger.EventType(ev.ProviderEvent),
		logger.CustomerID(ev.CustomerID),
		logger.Component("billing"),
	)
	return nil
}

func (r *Reconciler) resolvePlan(ev *WebhookEvent) (plan.Plan, error) {
	if ev.PlanID != "" {
		if p, err := r.plans.Get(ev.PlanID); err == nil {
			return p, nil
		}
	}
	if ev.PriceRef != "" {
		return r.plans.ByPriceRef(ev.PriceRef)
	}
	return plan.Plan{}, ErrUnknownPriceRef
}

// periodEnd returns the provider-reported period end, or one month from now
// when the event did not carry one.
func (r *Reconciler) periodEnd(ev *WebhookEvent) time.Time {
	if !ev.PeriodEnd.IsZero() {
		return ev.PeriodEnd.UTC()
	}
	return r.now().UTC().AddDate(0, 1, 0)
}

func mapProviderStatus(status string) auth.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return auth.StatusActive
	case "past_due", "unpaid":
		return auth.StatusPastDue
	case "canceled", "cancelled", "expired":
		return auth.StatusCancelled
	default:
		return auth.StatusActive
	}
}
