package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// A Configuration maps slots to selected products. Slots without an eligible
// product are absent from Components.
type Configuration struct {
	Components map[Slot]Product
	TotalPrice decimal.Decimal
}

func NewConfiguration() Configuration {
	return Configuration{
		Components: make(map[Slot]Product),
		TotalPrice: decimal.Zero,
	}
}

// Set assigns p to slot s and recomputes TotalPrice.
func (c *Configuration) Set(s Slot, p Product) {
	if c.Components == nil {
		c.Components = make(map[Slot]Product)
	}
	c.Components[s] = p
	c.TotalPrice = sumComponents(c.Components)
}

// Empty reports whether no slot could be filled. Callers treat it as unavailable.
func (c Configuration) Empty() bool {
	return len(c.Components) == 0
}

// Missing returns the slots of required that have no product.
func (c Configuration) Missing(required []Slot) []Slot {
	var missing []Slot
	for _, s := range required {
		if _, ok := c.Components[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// ProductIDs lists the selected product ids in slot display order.
func (c Configuration) ProductIDs() []string {
	return productIDs(c.Components)
}

// Configurations holds a configuration for every PC type and tier.
type Configurations map[PCType]map[Tier]Configuration

func (cs Configurations) Get(t PCType, tier Tier) (Configuration, bool) {
	byTier, ok := cs[t]
	if !ok {
		return Configuration{}, false
	}
	c, ok := byTier[tier]
	return c, ok
}

type CustomConfiguration struct {
	ID           string
	Name         string
	PCType       PCType
	TargetBudget decimal.Decimal
	Configuration
}

// OverBudget reports whether the cheapest-product fallback pushed the total
// over the requested budget.
func (c CustomConfiguration) OverBudget() bool {
	return c.TotalPrice.GreaterThan(c.TargetBudget)
}

func sumComponents(m map[Slot]Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range m {
		total = total.Add(p.EffectivePrice())
	}
	return total
}

func productIDs(m map[Slot]Product) []string {
	keys := make([]Slot, 0, len(m))
	for s := range m {
		keys = append(keys, s)
	}
	slices.SortFunc(keys, func(a, b Slot) int { return a.Index() - b.Index() })

	ids := make([]string, 0, len(keys))
	for _, s := range keys {
		ids = append(ids, m[s].ProductID)
	}
	return ids
}
