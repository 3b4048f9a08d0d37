package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

// A Category is the canonical catalog category of a product.
type Category string

const (
	CategoryAccessories      Category = "Accessories"
	CategoryComputerCase     Category = "Computer Case"
	CategoryCoolingFan       Category = "Cooling Fan"
	CategoryCPUCooler        Category = "CPU Cooler"
	CategoryCustomCoolingKit Category = "Custom Cooling Kit"
	CategoryGraphicsCard     Category = "Graphics Card"
	CategoryGPUVerticalMount Category = "Gpu Vertical Mount"
	CategoryHardDiskDrive    Category = "Hard Disk Drive"
	CategoryHeadset          Category = "Headset"
	CategoryKeyboard         Category = "Keyboard"
	CategoryLaptop           Category = "Laptop"
	CategoryMac              Category = "Mac"
	CategoryMonitor          Category = "Monitor"
	CategoryMotherboard      Category = "Motherboard"
	CategoryMouse            Category = "Mouse"
	CategoryOpticalDrive     Category = "Optical Drive"
	CategoryPortableHDD      Category = "Portable HDD"
	CategoryPortableSSD      Category = "Portable SSD"
	CategoryPowerSupply      Category = "Power Supply"
	CategoryProcessor        Category = "Processor"
	CategoryRAM              Category = "RAM"
	CategorySSD              Category = "SSD"
	CategorySSDCooler        Category = "SSD Cooler"
)

var categories = []Category{
	CategoryAccessories,
	CategoryComputerCase,
	CategoryCoolingFan,
	CategoryCPUCooler,
	CategoryCustomCoolingKit,
	CategoryGraphicsCard,
	CategoryGPUVerticalMount,
	CategoryHardDiskDrive,
	CategoryHeadset,
	CategoryKeyboard,
	CategoryLaptop,
	CategoryMac,
	CategoryMonitor,
	CategoryMotherboard,
	CategoryMouse,
	CategoryOpticalDrive,
	CategoryPortableHDD,
	CategoryPortableSSD,
	CategoryPowerSupply,
	CategoryProcessor,
	CategoryRAM,
	CategorySSD,
	CategorySSDCooler,
}

// keys are folded with foldCategory
var categoryAliases = map[string]Category{
	"case":      CategoryComputerCase,
	"pc case":   CategoryComputerCase,
	"gpu":       CategoryGraphicsCard,
	"cpu":       CategoryProcessor,
	"psu":       CategoryPowerSupply,
	"hdd":       CategoryHardDiskDrive,
	"memory":    CategoryRAM,
	"headphone": CategoryHeadset,
	"case fan":  CategoryCoolingFan,
}

var categoryIndex = func() map[string]Category {
	m := make(map[string]Category, len(categories)+len(categoryAliases))
	for _, c := range categories {
		m[foldCategory(string(c))] = c
	}
	for k, c := range categoryAliases {
		m[k] = c
	}
	return m
}()

// Categories returns the category vocabulary in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a free-form catalog category onto the canonical vocabulary.
func ParseCategory(s string) (Category, error) {
	c, ok := categoryIndex[foldCategory(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is spelled exactly as in the vocabulary.
func (c Category) Valid() bool {
	return categoryIndex[foldCategory(string(c))] == c
}

func foldCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
