// Package configurator assembles PC builds from a product catalog.
//
// An [Engine] is immutable and holds no state between calls, so one value
// may serve any number of goroutines.
package configurator

import (
	"fmt"
	"slices"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

type Engine struct {
	policy Policy
}

func New(p Policy) (Engine, error) {
	const op = "configurator.New"

	if err := p.Validate(); err != nil {
		return Engine{}, fmt.Errorf("%s: %w", op, err)
	}
	return Engine{p.Clone()}, nil
}

// Default returns an engine over [DefaultPolicy].
func Default() Engine {
	e, err := New(DefaultPolicy())
	if err != nil {
		panic(err) // develop mistake
	}
	return e
}

func (e Engine) Policy() Policy {
	return e.policy.Clone()
}

func (e Engine) RequiredSlots(t domain.PCType) []domain.Slot {
	return slices.Clone(e.policy.RequiredSlots[t])
}

func (e Engine) BudgetRange(t domain.PCType, tier domain.Tier) (domain.BudgetRange, bool) {
	r, ok := e.policy.BudgetRanges[t][tier]
	return r, ok
}

func (e Engine) SlotCategory(s domain.Slot) (domain.Category, bool) {
	c, ok := e.policy.SlotCategories[s]
	return c, ok
}

// Generate builds a configuration for every PC type and tier.
//
// The result always has every PC type and tier. A slot without an eligible
// product is left out, so an empty catalog yields empty configurations.
func (e Engine) Generate(products []domain.Product) domain.Configurations {
	s := stock(products, e.policy.SlotCategories)

	out := make(domain.Configurations, len(domain.PCTypes()))
	for _, t := range domain.PCTypes() {
		out[t] = make(map[domain.Tier]domain.Configuration, len(domain.Tiers()))
		for _, tier := range domain.Tiers() {
			out[t][tier] = e.generateTier(s, t, tier)
		}
	}
	return out
}

func (e Engine) generateTier(
	s shelf, t domain.PCType, tier domain.Tier,
) domain.Configuration {
	r := e.policy.BudgetRanges[t][tier]
	cfg := domain.NewConfiguration()
	for _, slot := range e.policy.RequiredSlots[t] {
		sorted := s[e.policy.SlotCategories[slot]]
		if len(sorted) == 0 {
			continue
		}
		cfg.Set(slot, e.pickForTier(sorted, slot, t, tier, r))
	}
	return cfg
}

func (e Engine) pickForTier(
	sorted []domain.Product,
	slot domain.Slot,
	t domain.PCType,
	tier domain.Tier,
	r domain.BudgetRange,
) domain.Product {
	if o, ok := e.policy.TargetOverrides[t][slot]; ok {
		target := r.MaxPrice.Mul(decimal.NewFromFloat(o.ratio(tier)))
		return cheapestWithin(sorted, target)
	}
	target := r.MidPoint().Mul(decimal.NewFromFloat(e.policy.tierWeight(slot)))
	return nearest(sorted, target)
}
