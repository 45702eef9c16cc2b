// Package plan defines the static subscription plan catalog. Plans are an
// enumerated type mapped to configuration structs so quota and price logic
// stays exhaustive-checked; the catalog is immutable for the process lifetime.
package plan

import "errors"

var ErrPlanNotFound = errors.New("plan: not found")

// Unlimited marks a plan with no monthly generation cap (-1 chosen for SQL
// compatibility).
const Unlimited int64 = -1

// ID is the enumerated plan tier.
type ID string

const (
	Free       ID = "free"
	Starter    ID = "starter"
	Pro        ID = "pro"
	Enterprise ID = "enterprise"
)

// Valid reports whether id names a known tier.
func (id ID) Valid() bool {
	switch id {
	case Free, Starter, Pro, Enterprise:
		return true
	}
	return false
}

// IsPaid reports whether the tier requires an active paid subscription.
func (id ID) IsPaid() bool {
	return id.Valid() && id != Free
}

// Feature is a plan-specific capability flag.
type Feature string

const (
	FeatureTemplates       Feature = "templates"
	FeatureToneControl     Feature = "tone_control"
	FeatureMultiLanguage   Feature = "multi_language"
	FeatureHistoryExport   Feature = "history_export"
	FeaturePrioritySupport Feature = "priority_support"
)

// Money is a monetary amount in the smallest currency unit.
type Money struct {
	Amount   int64  // cents for USD
	Currency string // ISO 4217 code
}

// Plan describes one subscription tier.
type Plan struct {
	ID           ID
	Name         string
	MonthlyQuota int64 // generation calls per calendar month, Unlimited for no cap
	Price        Money
	PriceRef     string // billing provider's price identifier, empty for free
	Features     []Feature
}

// IsUnlimited reports whether the plan has no monthly generation cap.
func (p Plan) IsUnlimited() bool {
	return p.MonthlyQuota == Unlimited
}
