package domain

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID     string
	Name          string
	ModelNo       string
	Brand         string
	Category      Category
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.Decimal
	OnDiscount    bool
	Stock         int
}

// EffectivePrice returns the discount price while the discount is active,
// the regular price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.OnDiscount {
		return p.DiscountPrice
	}
	return p.Price
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// Eligible reports whether p may fill a slot mapped to category c.
func (p Product) Eligible(c Category) bool {
	return p.Category == c && p.InStock()
}

// CompareByPrice orders products by effective price, then by ProductID.
func CompareByPrice(a, b Product) int {
	if c := a.EffectivePrice().Cmp(b.EffectivePrice()); c != 0 {
		return c
	}
	return cmp.Compare(a.ProductID, b.ProductID)
}

// SortByPrice sorts ps in place with [CompareByPrice].
func SortByPrice(ps []Product) {
	slices.SortFunc(ps, CompareByPrice)
}

// SumEffective is the sum of the effective prices of ps.
func SumEffective(ps ...Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.EffectivePrice())
	}
	return total
}
