// Package entitlement decides whether a user may perform a generation call.
// An entitlement combines subscription validity with remaining monthly quota;
// it is resolved fresh from the store on every request because the billing
// reconciler can mutate subscription state concurrently.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/usage"
)

// Entitlement is the successful outcome of a check: the quota ceiling and
// current consumption, passed forward so downstream code need not re-query.
type Entitlement struct {
	Limit     int64 // plan.Unlimited for no cap
	Used      int64
	ResetsAt  time.Time
	Unlimited bool
}

// Remaining returns the number of calls left, or -1 when unlimited.
func (e Entitlement) Remaining() int64 {
	if e.Unlimited {
		return -1
	}
	if e.Used >= e.Limit {
		return 0
	}
	return e.Limit - e.Used
}

// Resolver checks subscription validity and quota state.
type Resolver struct {
	periods usage.Store
	now     func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the time source so tests can freeze or advance time
// across month boundaries.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over the given usage store.
func NewResolver(periods usage.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{periods: periods, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current reports the user's consumption for the current period without
// enforcing anything. Used for usage dashboards.
func (r *Resolver) Current(ctx context.Context, user *auth.User) (Entitlement, error) {
	now := r.now()
	month, year := usage.PeriodOf(now)
	period, err := r.periods.GetOrCreate(ctx, user.ID, month, year)
	if err != nil {
		return Entitlement{}, fmt.Errorf("entitlement: fetch usage period: %w", err)
	}

	return Entitlement{
		Limit:     user.MonthlyQuota,
		Used:      period.RequestCount,
		ResetsAt:  usage.NextReset(now),
		Unlimited: user.MonthlyQuota == plan.Unlimited,
	}, nil
}

// Check verifies the user's subscription and quota for one generation call.
// The user must already have passed identity verification.
func (r *Resolver) Check(ctx context.Context, user *auth.User) (Entitlement, error) {
	now := r.now()

	if !user.HasValidSubscription(now) {
		return Entitlement{}, &SubscriptionExpiredError{
			PlanID:    user.PlanID,
			ExpiredAt: user.SubscriptionEndsAt,
		}
	}

	ent, err := r.Current(ctx, user)
	if err != nil {
		return Entitlement{}, err
	}

	if !ent.Unlimited && ent.Used >= user.MonthlyQuota {
		return Entitlement{}, &QuotaExceededError{
			Limit:    user.MonthlyQuota,
			Current:  ent.Used,
			ResetsAt: ent.ResetsAt,
		}
	}

	return ent, nil
}
