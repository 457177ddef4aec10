package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() *UnifiedProduct {
	p := &UnifiedProduct{
		SKU:      "SSACTIVEWEAR-NL3600",
		Name:     "Next Level CVC Crew",
		Brand:    "Next Level",
		Category: CategoryTShirts,
		Supplier: SupplierSSActivewear,
		Variants: []ProductVariant{
			{SKU: "SSACTIVEWEAR-NL3600-BLACK-S", Color: VariantColor{Name: "Black"}, Size: "S", Quantity: 120},
			{SKU: "SSACTIVEWEAR-NL3600-BLACK-M", Color: VariantColor{Name: "Black"}, Size: "M", Quantity: 0},
			{SKU: "SSACTIVEWEAR-NL3600-NAVY-S", Color: VariantColor{Name: "Navy"}, Size: "S", Quantity: 33},
		},
		Metadata: Metadata{SupplierProductID: "3600", LastSyncedAt: time.Now()},
	}
	p.RecomputeAvailability()
	return p
}

func TestUnifiedProduct_RecomputeAvailability(t *testing.T) {
	p := testProduct()

	assert.Equal(t, 153, p.Availability.TotalQuantity)
	assert.True(t, p.Availability.InStock)
	assert.False(t, p.Variants[1].InStock, "zero-quantity variant is out of stock")
	assert.True(t, p.Variants[0].InStock)

	t.Run("all variants empty", func(t *testing.T) {
		p := testProduct()
		for i := range p.Variants {
			p.Variants[i].Quantity = 0
		}
		p.RecomputeAvailability()
		assert.Equal(t, 0, p.Availability.TotalQuantity)
		assert.False(t, p.Availability.InStock)
	})

	t.Run("negative quantities clamp to zero", func(t *testing.T) {
		p := testProduct()
		p.Variants[0].Quantity = -5
		p.RecomputeAvailability()
		assert.Equal(t, 0, p.Variants[0].Quantity)
		assert.Equal(t, 33, p.Availability.TotalQuantity)
	})
}

func TestUnifiedProduct_ColorsAndSizes(t *testing.T) {
	p := testProduct()

	colors := p.Colors()
	require.Len(t, colors, 2)
	assert.Equal(t, "Black", colors[0].Name)
	assert.Equal(t, "Navy", colors[1].Name)

	assert.Equal(t, []string{"S", "M"}, p.Sizes())
}

func TestUnifiedProduct_Variant(t *testing.T) {
	p := testProduct()

	v, ok := p.Variant("SSACTIVEWEAR-NL3600-NAVY-S")
	require.True(t, ok)
	assert.Equal(t, 33, v.Quantity)

	_, ok = p.Variant("SSACTIVEWEAR-NL3600-RED-S")
	assert.False(t, ok)
}

func TestUnifiedProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UnifiedProduct)
		wantErr error
	}{
		{"valid", func(p *UnifiedProduct) {}, nil},
		{"missing sku", func(p *UnifiedProduct) { p.SKU = "" }, ErrMissingSKU},
		{"bad supplier", func(p *UnifiedProduct) { p.Supplier = "alibaba" }, ErrUnknownSupplier},
		{"no variants", func(p *UnifiedProduct) { p.Variants = nil }, ErrNoVariants},
		{
			"duplicate variant sku",
			func(p *UnifiedProduct) { p.Variants[1].SKU = p.Variants[0].SKU },
			ErrDuplicateVariantSKU,
		},
		{
			"stale availability",
			func(p *UnifiedProduct) { p.Availability.TotalQuantity = 1 },
			ErrAvailabilityMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProduct()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
