package plan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/plan"
)

func TestCatalog_Get(t *testing.T) {
	t.Parallel()

	catalog := plan.DefaultCatalog()

	p, err := catalog.Get(plan.Pro)
	require.NoError(t, err)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, int64(500), p.MonthlyQuota)
	assert.Equal(t, int64(4900), p.Price.Amount)

	_, err = catalog.Get(plan.ID("platinum"))
	require.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestCatalog_MustGetPanicsOnMiss(t *testing.T) {
	t.Parallel()

	catalog := plan.DefaultCatalog()
	assert.Panics(t, func() { catalog.MustGet(plan.ID("platinum")) })
	assert.NotPanics(t, func() { catalog.MustGet(plan.Free) })
}

func TestCatalog_List(t *testing.T) {
	t.Parallel()

	plans := plan.DefaultCatalog().List()
	require.Len(t, plans, 4)

	ids := make([]plan.ID, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []plan.ID{plan.Free, plan.Starter, plan.Pro, plan.Enterprise}, ids)
}

func TestCatalog_ApplyPriceRefs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  starter:
    price_ref: price_starter_123
  pro:
    price_ref: price_pro_456
`), 0o600))

	base := plan.DefaultCatalog()
	catalog, err := base.ApplyPriceRefs(path)
	require.NoError(t, err)

	starter := catalog.MustGet(plan.Starter)
	assert.Equal(t, "price_starter_123", starter.PriceRef)

	// Tiers absent from the file keep their existing reference.
	assert.Empty(t, catalog.MustGet(plan.Enterprise).PriceRef)

	// The original catalog stays untouched.
	assert.Empty(t, base.MustGet(plan.Starter).PriceRef)

	resolved, err := catalog.ByPriceRef("price_pro_456")
	require.NoError(t, err)
	assert.Equal(t, plan.Pro, resolved.ID)
}

func TestCatalog_ApplyPriceRefsErrors(t *testing.T) {
	t.Parallel()

	catalog := plan.DefaultCatalog()

	_, err := catalog.ApplyPriceRefs(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("plans: [not a map"), 0o600))
	_, err = catalog.ApplyPriceRefs(bad)
	require.Error(t, err)
}

func TestCatalog_ByPriceRef(t *testing.T) {
	t.Parallel()

	catalog := plan.DefaultCatalog()

	_, err := catalog.ByPriceRef("")
	require.ErrorIs(t, err, plan.ErrPlanNotFound)

	_, err = catalog.ByPriceRef("price_unknown")
	require.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestID(t *testing.T) {
	t.Parallel()

	assert.True(t, plan.Free.Valid())
	assert.True(t, plan.Enterprise.Valid())
	assert.False(t, plan.ID("platinum").Valid())

	assert.False(t, plan.Free.IsPaid())
	assert.True(t, plan.Starter.IsPaid())
	assert.False(t, plan.ID("platinum").IsPaid())
}

func TestPlan_IsUnlimited(t *testing.T) {
	t.Parallel()

	catalog := plan.DefaultCatalog()
	assert.True(t, catalog.MustGet(plan.Enterprise).IsUnlimited())
	assert.False(t, catalog.MustGet(plan.Free).IsUnlimited())
}
