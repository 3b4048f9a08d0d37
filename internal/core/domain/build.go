package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSlot   = errors.New("unknown component slot")
	ErrUnknownPCType = errors.New("unknown pc type")
	ErrUnknownTier   = errors.New("unknown budget tier")
)

// A Slot is a named component role in a build.
type Slot string

const (
	SlotProcessor    Slot = "processor"
	SlotMotherboard  Slot = "motherboard"
	SlotGraphicsCard Slot = "graphicsCard"
	SlotCPUCooler    Slot = "cpuCooler"
	SlotRAM1         Slot = "ram1"
	SlotRAM2         Slot = "ram2"
	SlotSSD          Slot = "ssd"
	SlotHDD          Slot = "hdd"
	SlotPowerSupply  Slot = "powerSupply"
	SlotCasing       Slot = "casing"
	SlotMonitor      Slot = "monitor"
	SlotCaseFan      Slot = "caseFan"
	SlotMouse        Slot = "mouse"
	SlotKeyboard     Slot = "keyboard"
	SlotHeadphone    Slot = "headphone"
)

type SlotGroup string

const (
	GroupCore        SlotGroup = "core"
	GroupPeripherals SlotGroup = "peripherals"
	GroupAccessories SlotGroup = "accessories"
)

type slotInfo struct {
	name  string
	group SlotGroup
}

var slots = []Slot{
	SlotProcessor,
	SlotMotherboard,
	SlotGraphicsCard,
	SlotCPUCooler,
	SlotRAM1,
	SlotRAM2,
	SlotSSD,
	SlotHDD,
	SlotPowerSupply,
	SlotCasing,
	SlotMonitor,
	SlotCaseFan,
	SlotMouse,
	SlotKeyboard,
	SlotHeadphone,
}

var slotInfos = map[Slot]slotInfo{
	SlotProcessor:    {"Processor", GroupCore},
	SlotMotherboard:  {"Motherboard", GroupCore},
	SlotGraphicsCard: {"Graphics Card", GroupCore},
	SlotCPUCooler:    {"CPU Cooler", GroupCore},
	SlotRAM1:         {"RAM-1", GroupCore},
	SlotRAM2:         {"RAM-2", GroupCore},
	SlotSSD:          {"SSD", GroupCore},
	SlotHDD:          {"HDD", GroupPeripherals},
	SlotPowerSupply:  {"Power Supply", GroupCore},
	SlotCasing:       {"Casing", GroupCore},
	SlotMonitor:      {"Monitor", GroupPeripherals},
	SlotCaseFan:      {"Case Fan", GroupPeripherals},
	SlotMouse:        {"Mouse", GroupAccessories},
	SlotKeyboard:     {"Keyboard", GroupAccessories},
	SlotHeadphone:    {"Headphone", GroupAccessories},
}

// Slots returns every slot in display order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

func ParseSlot(s string) (Slot, error) {
	if _, ok := slotInfos[Slot(s)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
	}
	return Slot(s), nil
}

func (s Slot) Name() string {
	if info, ok := slotInfos[s]; ok {
		return info.name
	}
	return string(s)
}

func (s Slot) Group() SlotGroup {
	return slotInfos[s].group
}

// Index is the display position of s, or -1 for an unknown slot.
func (s Slot) Index() int {
	for i, v := range slots {
		if v == s {
			return i
		}
	}
	return -1
}

// A PCType is the intended use of a build.
type PCType string

const (
	PCTypeGaming       PCType = "gaming"
	PCTypeProductivity PCType = "productivity"
	PCTypeRegular      PCType = "regular"
)

var pcTypes = []PCType{PCTypeGaming, PCTypeProductivity, PCTypeRegular}

func PCTypes() []PCType {
	out := make([]PCType, len(pcTypes))
	copy(out, pcTypes)
	return out
}

func ParsePCType(s string) (PCType, error) {
	for _, t := range pcTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPCType, s)
}

func (t PCType) Label() string {
	switch t {
	case PCTypeGaming:
		return "Gaming"
	case PCTypeProductivity:
		return "Workstation"
	case PCTypeRegular:
		return "Home/Office"
	}
	return string(t)
}

func (t PCType) Description() string {
	switch t {
	case PCTypeGaming:
		return "Optimized for gaming performance with powerful graphics cards and processors"
	case PCTypeProductivity:
		return "Built for demanding tasks like video editing, 3D rendering, and software development"
	case PCTypeRegular:
		return "Perfect for everyday computing, web browsing, and office applications"
	}
	return ""
}

// A Tier is a preset budget band.
type Tier string

const (
	TierBudget   Tier = "budget"
	TierMidRange Tier = "midRange"
	TierHighEnd  Tier = "highEnd"
)

var tiers = []Tier{TierBudget, TierMidRange, TierHighEnd}

func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

func ParseTier(s string) (Tier, error) {
	for _, t := range tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// A BudgetRange is the price band of a tier. MaxPrice of the top tier is
// informational and never enforced against a configuration total.
type BudgetRange struct {
	Name     string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

func (r BudgetRange) MidPoint() decimal.Decimal {
	return r.MinPrice.Add(r.MaxPrice).Div(decimal.NewFromInt(2))
}

// A Build is a set of components picked by hand.
type Build struct {
	ID         string
	Components map[Slot]Product
}

func NewBuild() Build {
	return Build{Components: make(map[Slot]Product)}
}

func (b Build) Total() decimal.Decimal {
	return sumComponents(b.Components)
}

// ProductIDs lists the selected product ids in slot display order.
func (b Build) ProductIDs() []string {
	return productIDs(b.Components)
}
