package entitlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/replyforge/replyforge/pkg/plan"
)

// Sentinels for errors.Is checks; the concrete error types below carry the
// machine-readable detail callers surface to clients.
var (
	ErrSubscriptionExpired = errors.New("entitlement: subscription expired")
	ErrQuotaExceeded       = errors.New("entitlement: quota exceeded")
)

// SubscriptionExpiredError signals that a paid plan has lapsed. Callers use
// it to prompt for renewal.
type SubscriptionExpiredError struct {
	PlanID    plan.ID
	ExpiredAt *time.Time
}

func (e *SubscriptionExpiredError) Error() string {
	if e.ExpiredAt == nil {
		return fmt.Sprintf("entitlement: %s subscription has no active period", e.PlanID)
	}
	return fmt.Sprintf("entitlement: %s subscription expired at %s", e.PlanID, e.ExpiredAt.Format(time.RFC3339))
}

func (e *SubscriptionExpiredError) Is(target error) bool {
	return target == ErrSubscriptionExpired
}

// QuotaExceededError reports current usage, the plan limit, and when the
// quota next resets.
type QuotaExceededError struct {
	Limit    int64
	Current  int64
	ResetsAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("entitlement: quota exceeded (%d/%d), resets at %s",
		e.Current, e.Limit, e.ResetsAt.Format(time.RFC3339))
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
