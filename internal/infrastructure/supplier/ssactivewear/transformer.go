package ssactivewear

import (
	"fmt"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

// categoryOverrides maps S&S categoryName values the shared table
// does not cover.
var categoryOverrides = map[string]catalog.Category{
	"t-shirts - premium": catalog.CategoryTShirts,
	"tank tops":          catalog.CategoryTShirts,
	"sport shirts":       catalog.CategoryPolos,
	"fleece - hooded":    catalog.CategoryHoodies,
	"fleece - crew":      catalog.CategoryHoodies,
	"fleece - pants":     catalog.CategoryPants,
	"infant & toddler":   catalog.CategoryYouth,
	"headwear - beanies": catalog.CategoryHeadwear,
	"headwear - caps":    catalog.CategoryHats,
	"bags - totes":       catalog.CategoryBags,
	"bags - backpacks":   catalog.CategoryBags,
}

// Transformer normalizes S&S Activewear records.
type Transformer struct {
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

func (t *Transformer) Supplier() catalog.SupplierCode { return catalog.SupplierSSActivewear }

// Transform builds the canonical product for one style. The base record
// already embeds the color range, size run, and price tiers; inventory
// enrichment swaps the synthesized variant grid for real stock lines.
func (t *Transformer) Transform(record supplier.Record, enrichment *supplier.Enrichment) (*catalog.UnifiedProduct, error) {
	raw, ok := record.(*Product)
	if !ok {
		return nil, fmt.Errorf("ssactivewear: unexpected record type %T", record)
	}
	if raw.StyleID == "" {
		return nil, catalog.ErrMissingSKU
	}

	sku := catalog.PrefixSKU(catalog.SupplierSSActivewear, raw.StyleID)
	product := &catalog.UnifiedProduct{
		SKU:         sku,
		Name:        raw.StyleName,
		Brand:       raw.BrandName,
		Description: raw.Description,
		Category:    catalog.NormalizeCategory(raw.CategoryName, categoryOverrides),
		Supplier:    catalog.SupplierSSActivewear,
		Images:      raw.Images,
		Metadata: catalog.Metadata{
			SupplierProductID: raw.StyleID,
			LastSyncedAt:      t.now().UTC(),
		},
	}
	if raw.FabricContent != "" || raw.PieceWeight != "" {
		product.Specifications = &catalog.Specifications{
			Fabric: raw.FabricContent,
			Weight: raw.PieceWeight,
		}
	}

	product.Pricing = t.buildPricing(raw, enrichment)
	product.Variants = t.buildVariants(sku, raw, enrichment)
	product.RecomputeAvailability()

	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

func (t *Transformer) buildPricing(raw *Product, enrichment *supplier.Enrichment) catalog.Pricing {
	rows := raw.Pricing
	if enrichment != nil && len(enrichment.Pricing) > 0 {
		rows = nil
		for _, record := range enrichment.Pricing {
			if row, ok := record.(*PriceRow); ok {
				rows = append(rows, *row)
			}
		}
	}

	pricing := catalog.Pricing{Currency: "USD"}
	breaks := make([]catalog.PriceBreak, 0, len(rows))
	for _, row := range rows {
		breaks = append(breaks, catalog.PriceBreak{
			MinQty:    row.Quantity,
			Price:     row.Price,
			CasePrice: row.CasePrice,
		})
	}
	pricing.Breaks = catalog.NormalizeBreaks(breaks)
	if len(pricing.Breaks) > 0 {
		pricing.BasePrice = pricing.Breaks[0].Price
	}
	return pricing
}

func (t *Transformer) buildVariants(sku string, raw *Product, enrichment *supplier.Enrichment) []catalog.ProductVariant {
	if enrichment != nil && len(enrichment.Inventory) > 0 {
		return variantsFromInventory(sku, raw, enrichment.Inventory)
	}

	colors := raw.Colors
	if len(colors) == 0 {
		colors = []ColorSwatch{{ColorName: "One Color"}}
	}
	sizes := raw.Sizes
	if len(sizes) == 0 {
		sizes = []string{"One Size"}
	}

	variants := make([]catalog.ProductVariant, 0, len(colors)*len(sizes))
	for _, color := range colors {
		for _, size := range sizes {
			variants = append(variants, catalog.ProductVariant{
				SKU: catalog.VariantSKU(sku, color.ColorName, size),
				Color: catalog.VariantColor{
					Name:   color.ColorName,
					Hex:    color.ColorHex,
					Family: color.ColorFamily,
				},
				Size:     size,
				ImageURL: color.ColorFrontImage,
			})
		}
	}
	return variants
}

func variantsFromInventory(sku string, raw *Product, inventory []supplier.Record) []catalog.ProductVariant {
	swatches := make(map[string]ColorSwatch, len(raw.Colors))
	for _, color := range raw.Colors {
		swatches[color.ColorName] = color
	}

	seen := make(map[string]bool, len(inventory))
	variants := make([]catalog.ProductVariant, 0, len(inventory))
	for _, record := range inventory {
		line, ok := record.(*InventoryLine)
		if !ok {
			continue
		}
		variantSKU := catalog.VariantSKU(sku, line.ColorName, line.SizeName)
		if seen[variantSKU] {
			continue
		}
		seen[variantSKU] = true
		swatch := swatches[line.ColorName]
		variants = append(variants, catalog.ProductVariant{
			SKU: variantSKU,
			Color: catalog.VariantColor{
				Name:   line.ColorName,
				Hex:    swatch.ColorHex,
				Family: swatch.ColorFamily,
			},
			Size:     line.SizeName,
			Quantity: line.Qty,
			ImageURL: swatch.ColorFrontImage,
		})
	}
	return variants
}

var _ supplier.Transformer = (*Transformer)(nil)
