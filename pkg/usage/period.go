// Package usage meters generation calls per user and calendar month.
//
// Exactly one Period row exists per (user, month, year). The store enforces
// this with upsert semantics rather than application-level locking: two
// concurrent first requests in the same period must both succeed and leave a
// single row with count 2.
package usage

import (
	"time"

	"github.com/google/uuid"
)

// Period is the monthly usage counter for one user.
// Month is 0-11 to match the wire format of the public API.
type Period struct {
	UserID       uuid.UUID
	Month        int
	Year         int
	RequestCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodOf returns the (month, year) bucket for t. Months are 0-based.
// The bucket is evaluated in UTC so entitlement checks and usage increments
// land in the same row no matter what location the caller's clock carries.
func PeriodOf(t time.Time) (month, year int) {
	t = t.UTC()
	return int(t.Month()) - 1, t.Year()
}

// NextReset returns the first instant of the UTC calendar month after t.
// Quotas reset on the server clock in UTC; per-user timezones are a known
// simplification.
func NextReset(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// PercentUsed returns usage as a percentage of quota (0-100), or -1 for an
// unlimited quota. Capped at 100 for display purposes.
func PercentUsed(used, quota int64) int {
	if quota < 0 {
		return -1
	}
	if quota == 0 {
		return 100
	}
	return min(int((used*100)/quota), 100)
}
