package httphandler

import (
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	Product struct {
		ProductID     string          `json:"product_id"`
		Name          string          `json:"name"`
		ModelNo       string          `json:"model_no"`
		Brand         string          `json:"brand"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		Price         decimal.Decimal `json:"price"`
		DiscountPrice decimal.Decimal `json:"discount_price"`
		OnDiscount    bool            `json:"on_discount"`
		Stock         int             `json:"stock"`
	}

	Component struct {
		Slot     string          `json:"slot"`
		SlotName string          `json:"slot_name"`
		Group    string          `json:"group"`
		Product  Product         `json:"product"`
		Price    decimal.Decimal `json:"price"`
	}

	Configuration struct {
		Components []Component     `json:"components"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}

	CustomConfiguration struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Type         string          `json:"type"`
		TargetBudget decimal.Decimal `json:"target_budget"`
		OverBudget   bool            `json:"over_budget"`
		Configuration
	}

	PCTypeConfigurations struct {
		Label       string                   `json:"label"`
		Description string                   `json:"description"`
		Tiers       map[string]Configuration `json:"tiers"`
	}

	CustomRequest struct {
		Budget decimal.Decimal `json:"budget"`
		Type   string          `json:"type"`
	}

	BuildRequest struct {
		Components map[string]string `json:"components"`
	}

	Build struct {
		ID         string          `json:"id"`
		Components []Component     `json:"components"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}
)

func toProductView(p domain.Product) Product {
	return Product{
		ProductID:     p.ProductID,
		Name:          p.Name,
		ModelNo:       p.ModelNo,
		Brand:         p.Brand,
		Category:      string(p.Category),
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		OnDiscount:    p.OnDiscount,
		Stock:         p.Stock,
	}
}

func toProductsView(ps []domain.Product) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	return out
}

func toComponentsView(m map[domain.Slot]domain.Product) []Component {
	out := make([]Component, 0, len(m))
	for _, s := range domain.Slots() {
		p, ok := m[s]
		if !ok {
			continue
		}
		out = append(out, Component{
			Slot:     string(s),
			SlotName: s.Name(),
			Group:    string(s.Group()),
			Product:  toProductView(p),
			Price:    p.EffectivePrice(),
		})
	}
	return out
}

func toConfigurationView(c domain.Configuration) Configuration {
	return Configuration{
		Components: toComponentsView(c.Components),
		TotalPrice: c.TotalPrice,
	}
}

func toPCTypeView(t domain.PCType, byTier map[domain.Tier]domain.Configuration) PCTypeConfigurations {
	v := PCTypeConfigurations{
		Label:       t.Label(),
		Description: t.Description(),
		Tiers:       make(map[string]Configuration, len(byTier)),
	}
	for tier, c := range byTier {
		v.Tiers[string(tier)] = toConfigurationView(c)
	}
	return v
}

func toCustomView(c domain.CustomConfiguration) CustomConfiguration {
	return CustomConfiguration{
		ID:            c.ID,
		Name:          c.Name,
		Type:          string(c.PCType),
		TargetBudget:  c.TargetBudget,
		OverBudget:    c.OverBudget(),
		Configuration: toConfigurationView(c.Configuration),
	}
}

func toBuildView(b domain.Build) Build {
	return Build{
		ID:         b.ID,
		Components: toComponentsView(b.Components),
		TotalPrice: b.Total(),
	}
}
