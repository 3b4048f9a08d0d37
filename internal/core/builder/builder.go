// Package builder implements the manual build flow: a user fills slots
// one at a time and submits the build once the required slots are set.
package builder

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/domain"
)

var (
	ErrCategoryMismatch = errors.New("product category does not match slot")
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrIncompleteBuild  = errors.New("build is incomplete")
)

// A manual build needs at least these slots.
var requiredSlots = []domain.Slot{
	domain.SlotProcessor,
	domain.SlotMotherboard,
}

type Builder struct {
	categories map[domain.Slot]domain.Category
}

func New(p configurator.Policy) Builder {
	return Builder{categories: maps.Clone(p.SlotCategories)}
}

func (Builder) RequiredSlots() []domain.Slot {
	return slices.Clone(requiredSlots)
}

// Select returns a copy of b with p placed in slot s.
func (bl Builder) Select(b domain.Build, s domain.Slot, p domain.Product) (domain.Build, error) {
	const op = "Builder.Select"

	c, ok := bl.categories[s]
	if !ok {
		return b, fmt.Errorf("%s: %w: %q", op, domain.ErrUnknownSlot, s)
	}
	if p.Category != c {
		return b, fmt.Errorf(
			"%s: %w: %q is %q, slot %q takes %q",
			op, ErrCategoryMismatch, p.ProductID, p.Category, s, c,
		)
	}
	if !p.InStock() {
		return b, fmt.Errorf("%s: %w: %q", op, ErrOutOfStock, p.ProductID)
	}

	out := clone(b)
	out.Components[s] = p
	return out, nil
}

// Remove returns a copy of b without slot s.
func (Builder) Remove(b domain.Build, s domain.Slot) domain.Build {
	out := clone(b)
	delete(out.Components, s)
	return out
}

// Validate reports the required slots b leaves empty.
func (Builder) Validate(b domain.Build) error {
	var missing []string
	for _, s := range requiredSlots {
		if _, ok := b.Components[s]; !ok {
			missing = append(missing, s.Name())
		}
	}
	if len(missing) != 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteBuild, strings.Join(missing, ", "))
	}
	return nil
}

func clone(b domain.Build) domain.Build {
	out := domain.Build{ID: b.ID, Components: maps.Clone(b.Components)}
	if out.Components == nil {
		out.Components = make(map[domain.Slot]domain.Product)
	}
	return out
}
