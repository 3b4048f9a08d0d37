package configurator

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTierWeight applies to slots missing from Policy.TierWeights.
	DefaultTierWeight = 0.10

	// DefaultAllocation applies to slots missing from Policy.Allocations.
	DefaultAllocation = 0.10
)

var ErrInvalidPolicy = errors.New("invalid policy")

// A TargetOverride replaces the midpoint rule for one slot of one PC type.
// The target price becomes the tier MaxPrice times the ratio.
type TargetOverride struct {
	Ratio        float64
	HighEndRatio float64
}

func (o TargetOverride) ratio(tier domain.Tier) float64 {
	if tier == domain.TierHighEnd {
		return o.HighEndRatio
	}
	return o.Ratio
}

// Policy holds the tunable tables of the engine. The values are shop policy,
// not part of the algorithm; any of them may be replaced.
type Policy struct {
	SlotCategories   map[domain.Slot]domain.Category
	RequiredSlots    map[domain.PCType][]domain.Slot
	BudgetRanges     map[domain.PCType]map[domain.Tier]domain.BudgetRange
	TierWeights      map[domain.Slot]float64
	TargetOverrides  map[domain.PCType]map[domain.Slot]TargetOverride
	Allocations      map[domain.PCType]map[domain.Slot]float64
	UpgradeOrder     []domain.Slot
	UpgradeThreshold decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		SlotCategories: map[domain.Slot]domain.Category{
			domain.SlotProcessor:    domain.CategoryProcessor,
			domain.SlotMotherboard:  domain.CategoryMotherboard,
			domain.SlotGraphicsCard: domain.CategoryGraphicsCard,
			domain.SlotCPUCooler:    domain.CategoryCPUCooler,
			domain.SlotRAM1:         domain.CategoryRAM,
			domain.SlotRAM2:         domain.CategoryRAM,
			domain.SlotSSD:          domain.CategorySSD,
			domain.SlotHDD:          domain.CategoryHardDiskDrive,
			domain.SlotPowerSupply:  domain.CategoryPowerSupply,
			domain.SlotCasing:       domain.CategoryComputerCase,
			domain.SlotMonitor:      domain.CategoryMonitor,
			domain.SlotCaseFan:      domain.CategoryCoolingFan,
			domain.SlotMouse:        domain.CategoryMouse,
			domain.SlotKeyboard:     domain.CategoryKeyboard,
			domain.SlotHeadphone:    domain.CategoryHeadset,
		},
		RequiredSlots: map[domain.PCType][]domain.Slot{
			domain.PCTypeGaming: {
				domain.SlotProcessor,
				domain.SlotMotherboard,
				domain.SlotGraphicsCard,
				domain.SlotRAM1,
				domain.SlotSSD,
				domain.SlotPowerSupply,
				domain.SlotCasing,
				domain.SlotCPUCooler,
			},
			domain.PCTypeProductivity: {
				domain.SlotProcessor,
				domain.SlotMotherboard,
				domain.SlotGraphicsCard,
				domain.SlotRAM1,
				domain.SlotRAM2,
				domain.SlotSSD,
				domain.SlotHDD,
				domain.SlotPowerSupply,
				domain.SlotCasing,
				domain.SlotCPUCooler,
			},
			domain.PCTypeRegular: {
				domain.SlotProcessor,
				domain.SlotMotherboard,
				domain.SlotRAM1,
				domain.SlotSSD,
				domain.SlotPowerSupply,
				domain.SlotCasing,
			},
		},
		BudgetRanges: map[domain.PCType]map[domain.Tier]domain.BudgetRange{
			domain.PCTypeGaming: {
				domain.TierBudget:   budgetRange("Budget Gaming", 30000, 50000),
				domain.TierMidRange: budgetRange("Mid-Range Gaming", 50001, 70000),
				domain.TierHighEnd:  budgetRange("High-End Gaming", 70001, 120000),
			},
			domain.PCTypeProductivity: {
				domain.TierBudget:   budgetRange("Budget Workstation", 25000, 40000),
				domain.TierMidRange: budgetRange("Mid-Range Workstation", 40001, 60000),
				domain.TierHighEnd:  budgetRange("High-End Workstation", 60001, 80000),
			},
			domain.PCTypeRegular: {
				domain.TierBudget:   budgetRange("Budget Home/Office", 30000, 45000),
				domain.TierMidRange: budgetRange("Mid-Range Home/Office", 45001, 65000),
				domain.TierHighEnd:  budgetRange("High-End Home/Office", 65001, 90000),
			},
		},
		TierWeights: map[domain.Slot]float64{
			domain.SlotProcessor:    0.20,
			domain.SlotMotherboard:  0.12,
			domain.SlotGraphicsCard: 0.25,
			domain.SlotRAM1:         0.08,
			domain.SlotRAM2:         0.08,
			domain.SlotSSD:          0.10,
			domain.SlotPowerSupply:  0.10,
			domain.SlotCasing:       0.07,
			domain.SlotCPUCooler:    0.05,
			domain.SlotHDD:          0.05,
			domain.SlotMonitor:      0.15,
			domain.SlotMouse:        0.03,
			domain.SlotKeyboard:     0.03,
			domain.SlotHeadphone:    0.03,
			domain.SlotCaseFan:      0.02,
		},
		TargetOverrides: map[domain.PCType]map[domain.Slot]TargetOverride{
			domain.PCTypeGaming: {
				domain.SlotGraphicsCard: {Ratio: 0.30, HighEndRatio: 0.35},
			},
			domain.PCTypeProductivity: {
				domain.SlotProcessor: {Ratio: 0.20, HighEndRatio: 0.25},
			},
		},
		Allocations: map[domain.PCType]map[domain.Slot]float64{
			domain.PCTypeGaming: {
				domain.SlotProcessor:    0.20,
				domain.SlotGraphicsCard: 0.30,
				domain.SlotMotherboard:  0.12,
				domain.SlotRAM1:         0.08,
				domain.SlotSSD:          0.10,
				domain.SlotPowerSupply:  0.08,
				domain.SlotCasing:       0.07,
				domain.SlotCPUCooler:    0.05,
			},
			domain.PCTypeProductivity: {
				domain.SlotProcessor:    0.25,
				domain.SlotMotherboard:  0.12,
				domain.SlotGraphicsCard: 0.20,
				domain.SlotRAM1:         0.08,
				domain.SlotRAM2:         0.07,
				domain.SlotSSD:          0.10,
				domain.SlotHDD:          0.05,
				domain.SlotPowerSupply:  0.07,
				domain.SlotCasing:       0.06,
				domain.SlotCPUCooler:    0.05,
			},
			domain.PCTypeRegular: {
				domain.SlotProcessor:   0.22,
				domain.SlotMotherboard: 0.15,
				domain.SlotRAM1:        0.12,
				domain.SlotSSD:         0.20,
				domain.SlotPowerSupply: 0.15,
				domain.SlotCasing:      0.16,
			},
		},
		UpgradeOrder: []domain.Slot{
			domain.SlotProcessor,
			domain.SlotGraphicsCard,
			domain.SlotSSD,
			domain.SlotRAM1,
			domain.SlotMotherboard,
		},
		UpgradeThreshold: decimal.NewFromInt(50),
	}
}

func budgetRange(name string, minPrice, maxPrice int64) domain.BudgetRange {
	return domain.BudgetRange{
		Name:     name,
		MinPrice: decimal.NewFromInt(minPrice),
		MaxPrice: decimal.NewFromInt(maxPrice),
	}
}

func (p Policy) tierWeight(s domain.Slot) float64 {
	if w, ok := p.TierWeights[s]; ok {
		return w
	}
	return DefaultTierWeight
}

func (p Policy) allocation(t domain.PCType, s domain.Slot) float64 {
	if r, ok := p.Allocations[t][s]; ok {
		return r
	}
	return DefaultAllocation
}

// Clone returns a deep copy of p.
func (p Policy) Clone() Policy {
	c := Policy{
		SlotCategories:   maps.Clone(p.SlotCategories),
		RequiredSlots:    make(map[domain.PCType][]domain.Slot, len(p.RequiredSlots)),
		BudgetRanges:     make(map[domain.PCType]map[domain.Tier]domain.BudgetRange, len(p.BudgetRanges)),
		TierWeights:      maps.Clone(p.TierWeights),
		TargetOverrides:  make(map[domain.PCType]map[domain.Slot]TargetOverride, len(p.TargetOverrides)),
		Allocations:      make(map[domain.PCType]map[domain.Slot]float64, len(p.Allocations)),
		UpgradeOrder:     slices.Clone(p.UpgradeOrder),
		UpgradeThreshold: p.UpgradeThreshold,
	}
	for t, v := range p.RequiredSlots {
		c.RequiredSlots[t] = slices.Clone(v)
	}
	for t, v := range p.BudgetRanges {
		c.BudgetRanges[t] = maps.Clone(v)
	}
	for t, v := range p.TargetOverrides {
		c.TargetOverrides[t] = maps.Clone(v)
	}
	for t, v := range p.Allocations {
		c.Allocations[t] = maps.Clone(v)
	}
	return c
}

// Validate reports every inconsistency of the tables at once.
func (p Policy) Validate() error {
	var errs []error

	for s, c := range p.SlotCategories {
		if _, err := domain.ParseSlot(string(s)); err != nil {
			errs = append(errs, err)
		}
		if !c.Valid() {
			errs = append(errs, fmt.Errorf(
				"slot %q: %w: %q", s, domain.ErrUnknownCategory, c,
			))
		}
	}

	for _, t := range domain.PCTypes() {
		errs = append(errs, p.validatePCType(t)...)
	}

	for s, w := range p.TierWeights {
		if !isRatio(w) {
			errs = append(errs, fmt.Errorf("tier weight %q: %v out of [0, 1]", s, w))
		}
	}

	for _, s := range p.UpgradeOrder {
		if _, ok := p.SlotCategories[s]; !ok {
			errs = append(errs, fmt.Errorf("upgrade slot %q has no category", s))
		}
	}

	if p.UpgradeThreshold.IsNegative() {
		errs = append(errs, errors.New("upgrade threshold is negative"))
	}

	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, errors.Join(errs...))
	}
	return nil
}

func (p Policy) validatePCType(t domain.PCType) (errs []error) {
	required, ok := p.RequiredSlots[t]
	if !ok || len(required) == 0 {
		errs = append(errs, fmt.Errorf("pc type %q: no required slots", t))
	}
	for _, s := range required {
		if _, ok := p.SlotCategories[s]; !ok {
			errs = append(errs, fmt.Errorf("pc type %q: slot %q has no category", t, s))
		}
	}

	var prevMax decimal.Decimal
	for i, tier := range domain.Tiers() {
		r, ok := p.BudgetRanges[t][tier]
		if !ok {
			errs = append(errs, fmt.Errorf("pc type %q: tier %q: no budget range", t, tier))
			continue
		}
		if r.MinPrice.GreaterThan(r.MaxPrice) {
			errs = append(errs, fmt.Errorf("pc type %q: tier %q: min price above max price", t, tier))
		}
		if i > 0 && !r.MinPrice.GreaterThan(prevMax) {
			errs = append(errs, fmt.Errorf("pc type %q: tier %q overlaps previous tier", t, tier))
		}
		prevMax = r.MaxPrice
	}

	for s, o := range p.TargetOverrides[t] {
		if !isRatio(o.Ratio) || !isRatio(o.HighEndRatio) {
			errs = append(errs, fmt.Errorf("pc type %q: override %q: ratio out of [0, 1]", t, s))
		}
	}

	// allocations are not required to sum to 1
	for s, r := range p.Allocations[t] {
		if !isRatio(r) {
			errs = append(errs, fmt.Errorf("pc type %q: allocation %q: %v out of [0, 1]", t, s, r))
		}
	}
	return errs
}

func isRatio(v float64) bool {
	return v >= 0 && v <= 1
}
