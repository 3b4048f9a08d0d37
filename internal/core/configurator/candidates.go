package configurator

import (
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A shelf holds the eligible products of every mapped category,
// each list ordered with [domain.CompareByPrice].
type shelf map[domain.Category][]domain.Product

func stock(products []domain.Product, categories map[domain.Slot]domain.Category) shelf {
	s := make(shelf, len(categories))
	for _, c := range categories {
		s[c] = nil
	}
	for _, p := range products {
		if _, ok := s[p.Category]; !ok || !p.InStock() {
			continue
		}
		s[p.Category] = append(s[p.Category], p)
	}
	for _, ps := range s {
		domain.SortByPrice(ps)
	}
	return s
}

// cheapestWithin returns the cheapest product priced at or below target,
// or the cheapest product at all when none is.
func cheapestWithin(sorted []domain.Product, target decimal.Decimal) domain.Product {
	for _, p := range sorted {
		if p.EffectivePrice().LessThanOrEqual(target) {
			return p
		}
	}
	return sorted[0]
}

// nearest returns the product whose price is closest to target.
// Equal distances resolve to the lowest ProductID.
func nearest(sorted []domain.Product, target decimal.Decimal) domain.Product {
	best := sorted[0]
	bestDiff := best.EffectivePrice().Sub(target).Abs()
	for _, p := range sorted[1:] {
		diff := p.EffectivePrice().Sub(target).Abs()
		c := diff.Cmp(bestDiff)
		if c < 0 || (c == 0 && p.ProductID < best.ProductID) {
			best, bestDiff = p, diff
		}
	}
	return best
}

// fitting returns the most expensive product priced at or below allocation.
// When nothing fits, the cheapest product is returned and fits is false.
func fitting(sorted []domain.Product, allocation decimal.Decimal) (domain.Product, bool) {
	var (
		best      domain.Product
		bestScore decimal.Decimal
		fits      bool
	)
	for _, p := range sorted {
		price := p.EffectivePrice()
		if price.GreaterThan(allocation) {
			continue
		}
		score := allocation.Sub(price)
		if !fits || score.LessThan(bestScore) ||
			(score.Equal(bestScore) && p.ProductID < best.ProductID) {
			best, bestScore, fits = p, score, true
		}
	}
	if !fits {
		return sorted[0], false
	}
	return best, true
}

// upgradeFor returns the most expensive product that costs more than current
// by no more than headroom.
func upgradeFor(
	sorted []domain.Product, current domain.Product, headroom decimal.Decimal,
) (domain.Product, bool) {
	var (
		best  domain.Product
		found bool
	)
	currentPrice := current.EffectivePrice()
	limit := currentPrice.Add(headroom)
	for _, p := range sorted {
		price := p.EffectivePrice()
		if !price.GreaterThan(currentPrice) || price.GreaterThan(limit) {
			continue
		}
		bestPrice := best.EffectivePrice()
		if !found || price.GreaterThan(bestPrice) ||
			(price.Equal(bestPrice) && p.ProductID < best.ProductID) {
			best, found = p, true
		}
	}
	return best, found
}
