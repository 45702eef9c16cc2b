package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/entitlement"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/usage"
)

var frozen = time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC)

func newResolver(periods usage.Store) *entitlement.Resolver {
	return entitlement.NewResolver(periods, entitlement.WithClock(func() time.Time { return frozen }))
}

func freeUser() *auth.User {
	return &auth.User{
		ID:           uuid.New(),
		PlanID:       plan.Free,
		MonthlyQuota: 10,
	}
}

func proUser(endsAt time.Time) *auth.User {
	return &auth.User{
		ID:                 uuid.New(),
		PlanID:             plan.Pro,
		MonthlyQuota:       500,
		SubscriptionStatus: auth.StatusActive,
		SubscriptionEndsAt: &endsAt,
	}
}

func TestCheck_FreeTierAlwaysValid(t *testing.T) {
	t.Parallel()

	// Free users have no expiry on file and must still pass.
	resolver := newResolver(usage.NewMemoryStore())
	ent, err := resolver.Check(context.Background(), freeUser())
	require.NoError(t, err)
	assert.Equal(t, int64(10), ent.Limit)
	assert.Equal(t, int64(0), ent.Used)
	assert.Equal(t, int64(10), ent.Remaining())
}

func TestCheck_PaidSubscriptionExpired(t *testing.T) {
	t.Parallel()

	resolver := newResolver(usage.NewMemoryStore())
	user := proUser(frozen.Add(-time.Hour))

	_, err := resolver.Check(context.Background(), user)
	require.ErrorIs(t, err, entitlement.ErrSubscriptionExpired)

	var expired *entitlement.SubscriptionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, plan.Pro, expired.PlanID)
}

func TestCheck_PaidSubscriptionValid(t *testing.T) {
	t.Parallel()

	resolver := newResolver(usage.NewMemoryStore())
	_, err := resolver.Check(context.Background(), proUser(frozen.Add(24*time.Hour)))
	require.NoError(t, err)
}

func TestCheck_QuotaBoundary(t *testing.T) {
	t.Parallel()

	periods := usage.NewMemoryStore()
	resolver := newResolver(periods)
	user := freeUser()

	month, year := usage.PeriodOf(frozen)
	for range 9 {
		_, err := periods.Increment(context.Background(), user.ID, month, year)
		require.NoError(t, err)
	}

	// 9 of 10 used: the tenth call is allowed.
	ent, err := resolver.Check(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ent.Remaining())

	_, err = periods.Increment(context.Background(), user.ID, month, year)
	require.NoError(t, err)

	// 10 of 10 used: rejected with machine-readable detail.
	_, err = resolver.Check(context.Background(), user)
	require.ErrorIs(t, err, entitlement.ErrQuotaExceeded)

	var quota *entitlement.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, int64(10), quota.Limit)
	assert.Equal(t, int64(10), quota.Current)
	assert.Equal(t, usage.NextReset(frozen), quota.ResetsAt)
}

func TestCheck_UnlimitedNeverRejects(t *testing.T) {
	t.Parallel()

	periods := usage.NewMemoryStore()
	resolver := newResolver(periods)
	user := proUser(frozen.Add(24 * time.Hour))
	user.MonthlyQuota = plan.Unlimited

	month, year := usage.PeriodOf(frozen)
	for range 1000 {
		_, err := periods.Increment(context.Background(), user.ID, month, year)
		require.NoError(t, err)
	}

	ent, err := resolver.Check(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, ent.Unlimited)
	assert.Equal(t, int64(-1), ent.Remaining())
}

// A new calendar month reads a fresh period: consumption does not carry
// over.
func TestCheck_MonthBoundaryResetsQuota(t *testing.T) {
	t.Parallel()

	periods := usage.NewMemoryStore()
	now := time.Date(2025, time.May, 31, 23, 0, 0, 0, time.UTC)
	resolver := entitlement.NewResolver(periods, entitlement.WithClock(func() time.Time { return now }))
	user := freeUser()

	month, year := usage.PeriodOf(now)
	for range 10 {
		_, err := periods.Increment(context.Background(), user.ID, month, year)
		require.NoError(t, err)
	}

	_, err := resolver.Check(context.Background(), user)
	require.ErrorIs(t, err, entitlement.ErrQuotaExceeded)

	now = time.Date(2025, time.June, 1, 0, 30, 0, 0, time.UTC)
	ent, err := resolver.Check(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ent.Used)
}

func TestCurrent_DoesNotEnforce(t *testing.T) {
	t.Parallel()

	periods := usage.NewMemoryStore()
	resolver := newResolver(periods)
	user := freeUser()

	month, year := usage.PeriodOf(frozen)
	for range 10 {
		_, err := periods.Increment(context.Background(), user.ID, month, year)
		require.NoError(t, err)
	}

	ent, err := resolver.Current(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(10), ent.Used)
	assert.Equal(t, int64(0), ent.Remaining())
}

type cannedCompleter struct{}

func (cannedCompleter) Complete(context.Context, generation.CompletionRequest) (*generation.CompletionResult, error) {
	return &generation.CompletionResult{Text: "Thank you!", PromptTokens: 10, CompletionTokens: 5}, nil
}

func TestCheck_SharesPeriodRowWithGateway(t *testing.T) {
	t.Parallel()

	// A clock in a non-UTC zone whose local month differs from the UTC month:
	// Jan 1 05:00 at UTC+12 is still Dec 31 17:00 in UTC. Checks and
	// increments must land in the same period row regardless.
	zone := time.FixedZone("UTC+12", 12*60*60)
	now := time.Date(2026, time.January, 1, 5, 0, 0, 0, zone)
	clock := func() time.Time { return now }

	periods := usage.NewMemoryStore()
	resolver := entitlement.NewResolver(periods, entitlement.WithClock(clock))
	gateway := generation.NewGateway(cannedCompleter{}, generation.NewMemoryStore(periods), generation.Pricing{},
		generation.WithClock(clock))

	user := freeUser()
	user.MonthlyQuota = 1

	_, err := resolver.Check(context.Background(), user)
	require.NoError(t, err)

	_, err = gateway.Generate(context.Background(), user.ID, generation.GenerateRequest{ReviewText: "Great stay."})
	require.NoError(t, err)

	ent, err := resolver.Current(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ent.Used)

	var quotaErr *entitlement.QuotaExceededError
	_, err = resolver.Check(context.Background(), user)
	require.ErrorIs(t, err, entitlement.ErrQuotaExceeded)
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(1), quotaErr.Current)
}
