package plan

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Catalog is an immutable plan lookup table keyed by tier.
type Catalog struct {
	plans map[ID]Plan
	order []ID
}

// DefaultCatalog returns the built-in catalog. Provider price references are
// empty; load them per environment with ApplyPriceRefs.
func DefaultCatalog() *Catalog {
	return newCatalog(
		Plan{
			ID:           Free,
			Name:         "Free",
			MonthlyQuota: 10,
			Price:        Money{Amount: 0, Currency: "USD"},
			Features:     []Feature{FeatureToneControl},
		},
		Plan{
			ID:           Starter,
			Name:         "Starter",
			MonthlyQuota: 100,
			Price:        Money{Amount: 1900, Currency: "USD"},
			Features:     []Feature{FeatureToneControl, FeatureMultiLanguage, FeatureTemplates},
		},
		Plan{
			ID:           Pro,
			Name:         "Pro",
			MonthlyQuota: 500,
			Price:        Money{Amount: 4900, Currency: "USD"},
			Features:     []Feature{FeatureToneControl, FeatureMultiLanguage, FeatureTemplates, FeatureHistoryExport},
		},
		Plan{
			ID:           Enterprise,
			Name:         "Enterprise",
			MonthlyQuota: Unlimited,
			Price:        Money{Amount: 19900, Currency: "USD"},
			Features: []Feature{
				FeatureToneControl, FeatureMultiLanguage, FeatureTemplates,
				FeatureHistoryExport, FeaturePrioritySupport,
			},
		},
	)
}

func newCatalog(plans ...Plan) *Catalog {
	c := &Catalog{plans: make(map[ID]Plan, len(plans))}
	for _, p := range plans {
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c
}

// Get looks up a plan by tier.
func (c *Catalog) Get(id ID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// MustGet is Get for tiers known valid at the call site. Panics on miss
// because a missing built-in tier is a programming error.
func (c *Catalog) MustGet(id ID) Plan {
	p, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return p
}

// ByPriceRef resolves a plan from a billing provider price identifier.
func (c *Catalog) ByPriceRef(ref string) (Plan, error) {
	if ref == "" {
		return Plan{}, fmt.Errorf("%w: empty price ref", ErrPlanNotFound)
	}
	for _, id := range c.order {
		if p := c.plans[id]; p.PriceRef == ref {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: price ref %s", ErrPlanNotFound, ref)
}

// List returns all plans in catalog order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// priceRefsFile is the YAML shape for per-environment price references.
type priceRefsFile struct {
	Plans map[ID]struct {
		PriceRef string `yaml:"price_ref"`
	} `yaml:"plans"`
}

// ApplyPriceRefs loads billing provider price identifiers from a YAML file
// and returns a new catalog with them applied. Tiers absent from the file
// keep their existing reference.
func (c *Catalog) ApplyPriceRefs(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: failed to read price refs: %w", err)
	}

	var file priceRefsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("plan: failed to parse price refs: %w", err)
	}

	plans := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		p := c.plans[id]
		if entry, ok := file.Plans[id]; ok && entry.PriceRef != "" {
			p.PriceRef = entry.PriceRef
			p.Features = slices.Clone(p.Features)
		}
		plans = append(plans, p)
	}
	return newCatalog(plans...), nil
}
