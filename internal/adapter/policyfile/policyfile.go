// Package policyfile reads configurator policy overrides from HCL.
//
// A file only names what it changes; everything else keeps the value of
// the base policy:
//
//	upgrade_threshold = 100
//
//	slot "monitor" {
//	  tier_weight = 0.15
//	}
//
//	pc_type "gaming" {
//	  allocations = { graphicsCard = 0.32 }
//
//	  tier "highEnd" {
//	    max_price = 150000
//	  }
//
//	  override "graphicsCard" {
//	    ratio          = 0.30
//	    high_end_ratio = 0.40
//	  }
//	}
package policyfile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	hclPolicyFile struct {
		UpgradeThreshold *float64    `hcl:"upgrade_threshold,optional"`
		UpgradeOrder     []string    `hcl:"upgrade_order,optional"`
		Slots            []hclSlot   `hcl:"slot,block"`
		PCTypes          []hclPCType `hcl:"pc_type,block"`
	}

	hclSlot struct {
		Name       string   `hcl:"name,label"`
		Category   *string  `hcl:"category,optional"`
		TierWeight *float64 `hcl:"tier_weight,optional"`
	}

	hclPCType struct {
		Name          string             `hcl:"name,label"`
		RequiredSlots []string           `hcl:"required_slots,optional"`
		Allocations   map[string]float64 `hcl:"allocations,optional"`
		Tiers         []hclTier          `hcl:"tier,block"`
		Overrides     []hclOverride      `hcl:"override,block"`
	}

	hclTier struct {
		Name     string   `hcl:"name,label"`
		Label    *string  `hcl:"label,optional"`
		MinPrice *float64 `hcl:"min_price,optional"`
		MaxPrice *float64 `hcl:"max_price,optional"`
	}

	hclOverride struct {
		Slot         string  `hcl:"slot,label"`
		Ratio        float64 `hcl:"ratio"`
		HighEndRatio float64 `hcl:"high_end_ratio"`
	}
)

// Load overlays the policy file at path on base and validates the result.
func Load(path string, base configurator.Policy) (configurator.Policy, error) {
	const op = "policyfile.Load"
	log := slog.With("op", op)

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return configurator.Policy{}, fmt.Errorf("%s: failed to parse HCL file %s: %w", op, path, diags)
	}

	p, err := decode(f.Body, base)
	if err != nil {
		return configurator.Policy{}, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	log.Info("policy loaded", "path", path)
	return p, nil
}

// Parse is Load for an in-memory file.
func Parse(src []byte, filename string, base configurator.Policy) (configurator.Policy, error) {
	const op = "policyfile.Parse"

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return configurator.Policy{}, fmt.Errorf("%s: failed to parse HCL %s: %w", op, filename, diags)
	}

	p, err := decode(f.Body, base)
	if err != nil {
		return configurator.Policy{}, fmt.Errorf("%s: %s: %w", op, filename, err)
	}
	return p, nil
}

func decode(body hcl.Body, base configurator.Policy) (configurator.Policy, error) {
	var parsed hclPolicyFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return configurator.Policy{}, fmt.Errorf("failed to decode: %w", diags)
	}

	p := base.Clone()
	if err := overlay(&p, parsed); err != nil {
		return configurator.Policy{}, err
	}
	if err := p.Validate(); err != nil {
		return configurator.Policy{}, err
	}
	return p, nil
}

func overlay(p *configurator.Policy, f hclPolicyFile) error {
	var errs []error

	if f.UpgradeThreshold != nil {
		p.UpgradeThreshold = decimal.NewFromFloat(*f.UpgradeThreshold)
	}
	if f.UpgradeOrder != nil {
		order, err := parseSlots(f.UpgradeOrder)
		errs = append(errs, err)
		p.UpgradeOrder = order
	}

	for _, b := range f.Slots {
		errs = append(errs, overlaySlot(p, b))
	}
	for _, b := range f.PCTypes {
		errs = append(errs, overlayPCType(p, b))
	}

	return errors.Join(errs...)
}

func overlaySlot(p *configurator.Policy, b hclSlot) error {
	s, err := domain.ParseSlot(b.Name)
	if err != nil {
		return err
	}

	if b.Category != nil {
		c, err := domain.ParseCategory(*b.Category)
		if err != nil {
			return fmt.Errorf("slot %q: %w", s, err)
		}
		p.SlotCategories[s] = c
	}
	if b.TierWeight != nil {
		p.TierWeights[s] = *b.TierWeight
	}
	return nil
}

func overlayPCType(p *configurator.Policy, b hclPCType) error {
	t, err := domain.ParsePCType(b.Name)
	if err != nil {
		return err
	}

	var errs []error

	if b.RequiredSlots != nil {
		required, err := parseSlots(b.RequiredSlots)
		if err != nil {
			errs = append(errs, fmt.Errorf("pc type %q: %w", t, err))
		}
		p.RequiredSlots[t] = required
	}

	if len(b.Allocations) != 0 && p.Allocations[t] == nil {
		p.Allocations[t] = make(map[domain.Slot]float64, len(b.Allocations))
	}
	for name, ratio := range b.Allocations {
		s, err := domain.ParseSlot(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("pc type %q: allocations: %w", t, err))
			continue
		}
		p.Allocations[t][s] = ratio
	}

	for _, tb := range b.Tiers {
		errs = append(errs, overlayTier(p, t, tb))
	}

	if len(b.Overrides) != 0 && p.TargetOverrides[t] == nil {
		p.TargetOverrides[t] = make(map[domain.Slot]configurator.TargetOverride, len(b.Overrides))
	}
	for _, ob := range b.Overrides {
		s, err := domain.ParseSlot(ob.Slot)
		if err != nil {
			errs = append(errs, fmt.Errorf("pc type %q: override: %w", t, err))
			continue
		}
		p.TargetOverrides[t][s] = configurator.TargetOverride{
			Ratio:        ob.Ratio,
			HighEndRatio: ob.HighEndRatio,
		}
	}

	return errors.Join(errs...)
}

func overlayTier(p *configurator.Policy, t domain.PCType, b hclTier) error {
	tier, err := domain.ParseTier(b.Name)
	if err != nil {
		return fmt.Errorf("pc type %q: %w", t, err)
	}

	if p.BudgetRanges[t] == nil {
		p.BudgetRanges[t] = make(map[domain.Tier]domain.BudgetRange)
	}
	r := p.BudgetRanges[t][tier]
	if b.Label != nil {
		r.Name = *b.Label
	}
	if b.MinPrice != nil {
		r.MinPrice = decimal.NewFromFloat(*b.MinPrice)
	}
	if b.MaxPrice != nil {
		r.MaxPrice = decimal.NewFromFloat(*b.MaxPrice)
	}
	p.BudgetRanges[t][tier] = r
	return nil
}

func parseSlots(names []string) ([]domain.Slot, error) {
	var errs []error
	out := make([]domain.Slot, 0, len(names))
	for _, name := range names {
		s, err := domain.ParseSlot(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}
