package builder

import (
	"cmp"
	"slices"
	"strings"

	"github.com/niksmo/pcbuild/internal/core/domain"
)

// FilterComponents returns the products that fit slot s and mention search
// in their name, model number or description. An empty search matches
// every product of the slot category. The result is ordered by ProductID.
func (bl Builder) FilterComponents(
	products []domain.Product, s domain.Slot, search string,
) []domain.Product {
	c, ok := bl.categories[s]
	if !ok {
		return nil
	}

	term := strings.ToLower(strings.TrimSpace(search))
	var out []domain.Product
	for _, p := range products {
		if p.Category != c || !matches(p, term) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out
}

func matches(p domain.Product, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{p.Name, p.ModelNo, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
