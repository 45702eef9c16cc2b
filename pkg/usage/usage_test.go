package usage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/usage"
)

func TestPeriodOf(t *testing.T) {
	t.Parallel()

	month, year := usage.PeriodOf(time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, month)
	assert.Equal(t, 2025, year)

	month, year = usage.PeriodOf(time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, 11, month)
	assert.Equal(t, 2025, year)

	// Buckets come from the UTC instant, not the carried location:
	// Jan 1 05:00 at UTC+12 is Dec 31 17:00 UTC.
	zone := time.FixedZone("UTC+12", 12*60*60)
	month, year = usage.PeriodOf(time.Date(2026, time.January, 1, 5, 0, 0, 0, zone))
	assert.Equal(t, 11, month)
	assert.Equal(t, 2025, year)
}

func TestNextReset(t *testing.T) {
	t.Parallel()

	t.Run("mid month", func(t *testing.T) {
		t.Parallel()
		reset := usage.NextReset(time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), reset)
	})

	t.Run("december rolls into next year", func(t *testing.T) {
		t.Parallel()
		reset := usage.NextReset(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), reset)
	})

	t.Run("non-UTC input resets on the UTC month", func(t *testing.T) {
		t.Parallel()
		zone := time.FixedZone("UTC+12", 12*60*60)
		reset := usage.NextReset(time.Date(2026, time.January, 1, 5, 0, 0, 0, zone))
		assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), reset)
	})
}

func TestPercentUsed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, usage.PercentUsed(50, -1), "unlimited")
	assert.Equal(t, 0, usage.PercentUsed(0, 10))
	assert.Equal(t, 50, usage.PercentUsed(5, 10))
	assert.Equal(t, 100, usage.PercentUsed(10, 10))
	assert.Equal(t, 100, usage.PercentUsed(25, 10), "capped")
	assert.Equal(t, 100, usage.PercentUsed(1, 0), "zero quota")
}

func TestMemoryStore_GetOrCreate(t *testing.T) {
	t.Parallel()

	store := usage.NewMemoryStore()
	userID := uuid.New()

	created, err := store.GetOrCreate(context.Background(), userID, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.RequestCount)

	again, err := store.GetOrCreate(context.Background(), userID, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.RequestCount)
}

func TestMemoryStore_Increment(t *testing.T) {
	t.Parallel()

	store := usage.NewMemoryStore()
	userID := uuid.New()

	p, err := store.Increment(context.Background(), userID, 0, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.RequestCount)

	p, err = store.Increment(context.Background(), userID, 0, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.RequestCount)

	// A different period starts its own counter.
	p, err = store.Increment(context.Background(), userID, 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.RequestCount)
}

// Two concurrent first calls in the same period must both succeed and land
// on a single counter with value 2, never two independent rows.
func TestMemoryStore_ConcurrentFirstIncrement(t *testing.T) {
	t.Parallel()

	store := usage.NewMemoryStore()
	userID := uuid.New()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Increment(context.Background(), userID, 6, 2025)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := store.GetOrCreate(context.Background(), userID, 6, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.RequestCount)
}
