package policyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overlaySrc = `
upgrade_threshold = 100
upgrade_order     = ["graphicsCard", "processor"]

slot "monitor" {
  tier_weight = 0.15
}

slot "caseFan" {
  category = "case fan"
}

pc_type "gaming" {
  allocations = { graphicsCard = 0.25 }

  tier "highEnd" {
    label     = "Flagship Gaming"
    max_price = 150000
  }

  override "graphicsCard" {
    ratio          = 0.28
    high_end_ratio = 0.40
  }
}

pc_type "regular" {
  required_slots = ["processor", "motherboard", "ram1", "ssd"]
}
`

func TestParse(t *testing.T) {
	base := configurator.DefaultPolicy()

	t.Run("Overlay", func(t *testing.T) {
		p, err := Parse([]byte(overlaySrc), "policy.hcl", base)
		require.NoError(t, err)

		assert.Equal(t, "100", p.UpgradeThreshold.String())
		assert.Equal(t,
			[]domain.Slot{domain.SlotGraphicsCard, domain.SlotProcessor},
			p.UpgradeOrder,
		)
		assert.InDelta(t, 0.15, p.TierWeights[domain.SlotMonitor], 1e-9)
		assert.Equal(t, domain.CategoryCoolingFan, p.SlotCategories[domain.SlotCaseFan])
		assert.InDelta(t, 0.25, p.Allocations[domain.PCTypeGaming][domain.SlotGraphicsCard], 1e-9)

		highEnd := p.BudgetRanges[domain.PCTypeGaming][domain.TierHighEnd]
		assert.Equal(t, "Flagship Gaming", highEnd.Name)
		assert.Equal(t, "150000", highEnd.MaxPrice.String())
		assert.Equal(t, "70001", highEnd.MinPrice.String())

		o := p.TargetOverrides[domain.PCTypeGaming][domain.SlotGraphicsCard]
		assert.InDelta(t, 0.28, o.Ratio, 1e-9)
		assert.InDelta(t, 0.40, o.HighEndRatio, 1e-9)

		assert.Len(t, p.RequiredSlots[domain.PCTypeRegular], 4)
	})

	t.Run("KeepsUnnamed", func(t *testing.T) {
		p, err := Parse([]byte(overlaySrc), "policy.hcl", base)
		require.NoError(t, err)

		assert.Equal(t, base.RequiredSlots[domain.PCTypeGaming], p.RequiredSlots[domain.PCTypeGaming])
		assert.Equal(t, base.BudgetRanges[domain.PCTypeRegular], p.BudgetRanges[domain.PCTypeRegular])
		assert.InDelta(t,
			base.Allocations[domain.PCTypeGaming][domain.SlotProcessor],
			p.Allocations[domain.PCTypeGaming][domain.SlotProcessor],
			1e-9,
		)
		assert.InDelta(t, 0.30, base.TargetOverrides[domain.PCTypeGaming][domain.SlotGraphicsCard].Ratio, 1e-9)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		p, err := Parse(nil, "empty.hcl", base)
		require.NoError(t, err)
		assert.Equal(t, base.UpgradeOrder, p.UpgradeOrder)
	})

	tests := []struct {
		name string
		src  string
	}{
		{"Syntax", `slot "monitor" {`},
		{"UnknownAttribute", `colour = "red"`},
		{"UnknownSlot", `slot "cupHolder" { tier_weight = 0.1 }`},
		{"UnknownCategory", `slot "monitor" { category = "Television" }`},
		{"UnknownPCType", `pc_type "server" { required_slots = ["processor"] }`},
		{"UnknownTier", `pc_type "gaming" {
  tier "ultra" { max_price = 1 }
}`},
		{"InvalidResult", `pc_type "regular" {
  tier "midRange" { min_price = 100 }
}`},
		{"AllocationOutOfRange", `pc_type "regular" {
  allocations = { casing = 1.5 }
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl", base)
			assert.Error(t, err)
		})
	}

	t.Run("ValidationSentinel", func(t *testing.T) {
		_, err := Parse([]byte(`upgrade_threshold = -5`), "bad.hcl", base)
		assert.ErrorIs(t, err, configurator.ErrInvalidPolicy)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.hcl")
	require.NoError(t, os.WriteFile(path, []byte(overlaySrc), 0o600))

	p, err := Load(path, configurator.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "100", p.UpgradeThreshold.String())

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"), configurator.DefaultPolicy())
	assert.Error(t, err)
}

func TestLoadExample(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", "..", "configs", "policy.hcl"), configurator.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "150000", p.BudgetRanges[domain.PCTypeGaming][domain.TierHighEnd].MaxPrice.String())
}
