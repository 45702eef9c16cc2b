package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/plan"
)

// SubscriptionStatus is the locally stored billing state of a user.
// It reflects intent, not just the provider's raw state: a subscription set
// to cancel at period end is recorded as cancelled even while the provider
// still reports it active.
type SubscriptionStatus string

const (
	StatusNone      SubscriptionStatus = "none"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// User is the account record. Subscription fields are mutated only by the
// billing reconciler and administrative provisioning; accounts are never
// deleted, only deactivated via IsActive.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Name         string

	// Business profile used for reply generation defaults.
	BusinessName    string
	BusinessType    string
	DefaultTone     string
	DefaultLanguage string

	PlanID             plan.ID
	SubscriptionStatus SubscriptionStatus
	SubscriptionEndsAt *time.Time
	MonthlyQuota       int64 // -1 means unlimited

	ProviderCustomerID string
	ProviderSubID      string

	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasValidSubscription reports whether the user may consume paid-tier
// features at the given time. Free tier is always valid; paid tiers are
// valid strictly before the recorded period end.
func (u *User) HasValidSubscription(now time.Time) bool {
	if !u.PlanID.IsPaid() {
		return true
	}
	return u.SubscriptionEndsAt != nil && now.Before(*u.SubscriptionEndsAt)
}
