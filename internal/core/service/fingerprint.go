package service

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/niksmo/pcbuild/internal/core/domain"
)

const presetsKeyPrefix = "presets:"

// presetsKey identifies a catalog state. Product order does not matter.
func presetsKey(products []domain.Product) string {
	return presetsKeyPrefix + strconv.FormatUint(fingerprint(products), 16)
}

func fingerprint(products []domain.Product) uint64 {
	sorted := slices.Clone(products)
	slices.SortFunc(sorted, func(a, b domain.Product) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})

	d := xxhash.New()
	for _, p := range sorted {
		for _, field := range []string{
			p.ProductID,
			string(p.Category),
			p.Name,
			p.Brand,
			p.ModelNo,
			p.Description,
			p.Price.String(),
			p.DiscountPrice.String(),
			strconv.FormatBool(p.OnDiscount),
			strconv.Itoa(p.Stock),
		} {
			_, _ = d.WriteString(field)
			_, _ = d.Write([]byte{0})
		}
	}
	return d.Sum64()
}
