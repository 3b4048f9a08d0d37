package configurator

import (
	"fmt"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenerateCustom builds a configuration of type t for an arbitrary budget.
//
// It reports false when there is nothing to build from: an empty catalog,
// a budget that is not positive or a PC type without required slots.
//
// The total may exceed budget: a slot with nothing inside its allocation
// takes the cheapest eligible product instead.
func (e Engine) GenerateCustom(
	products []domain.Product, budget decimal.Decimal, t domain.PCType,
) (domain.CustomConfiguration, bool) {
	required := e.policy.RequiredSlots[t]
	if len(products) == 0 || !budget.IsPositive() || len(required) == 0 {
		return domain.CustomConfiguration{}, false
	}

	s := stock(products, e.policy.SlotCategories)
	allocations := e.allocate(budget, t)

	cfg := domain.NewConfiguration()
	for _, slot := range required {
		sorted := s[e.policy.SlotCategories[slot]]
		if len(sorted) == 0 {
			continue
		}
		p, _ := fitting(sorted, allocations[slot])
		cfg.Set(slot, p)
	}

	remaining := budget.Sub(cfg.TotalPrice)
	if remaining.GreaterThan(e.policy.UpgradeThreshold) {
		e.upgrade(s, &cfg, remaining)
	}

	return domain.CustomConfiguration{
		Name:          fmt.Sprintf("Custom %s Build", t.Label()),
		PCType:        t,
		TargetBudget:  budget,
		Configuration: cfg,
	}, true
}

// Allocations returns the per-slot budget of a custom build of type t.
func (e Engine) Allocations(budget decimal.Decimal, t domain.PCType) map[domain.Slot]decimal.Decimal {
	return e.allocate(budget, t)
}

func (e Engine) allocate(
	budget decimal.Decimal, t domain.PCType,
) map[domain.Slot]decimal.Decimal {
	required := e.policy.RequiredSlots[t]
	out := make(map[domain.Slot]decimal.Decimal, len(required))
	for _, slot := range required {
		ratio := decimal.NewFromFloat(e.policy.allocation(t, slot))
		out[slot] = budget.Mul(ratio)
	}
	return out
}

// upgrade spends remaining on better products, one slot at a time in
// upgrade order. An early upgrade shrinks the headroom of the later ones.
func (e Engine) upgrade(
	s shelf, cfg *domain.Configuration, remaining decimal.Decimal,
) decimal.Decimal {
	for _, slot := range e.policy.UpgradeOrder {
		current, ok := cfg.Components[slot]
		if !ok || remaining.LessThan(e.policy.UpgradeThreshold) {
			continue
		}

		better, ok := upgradeFor(s[e.policy.SlotCategories[slot]], current, remaining)
		if !ok {
			continue
		}

		delta := better.EffectivePrice().Sub(current.EffectivePrice())
		cfg.Set(slot, better)
		remaining = remaining.Sub(delta)
	}
	return remaining
}
