package ascolour

import (
	"fmt"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

// categoryOverrides maps AS Colour productType values onto the
// canonical categories where the shared table would miss them.
var categoryOverrides = map[string]catalog.Category{
	"staple tees": catalog.CategoryTShirts,
	"singlets":    catalog.CategoryTShirts,
	"long sleeve": catalog.CategoryTShirts,
	"crew fleece": catalog.CategoryHoodies,
	"hood fleece": catalog.CategoryHoodies,
	"zip fleece":  catalog.CategoryHoodies,
	"track pants": catalog.CategoryPants,
	"5 panel":     catalog.CategoryHats,
	"bucket hats": catalog.CategoryHats,
	"tote bags":   catalog.CategoryBags,
	"kids tees":   catalog.CategoryYouth,
	"socks":       catalog.CategoryAccessories,
}

// Transformer normalizes AS Colour records.
type Transformer struct {
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

func (t *Transformer) Supplier() catalog.SupplierCode { return catalog.SupplierASColour }

// Transform builds the canonical product for one style. Without
// enrichment the variant grid is the cross-product of the style's
// colour and size lists with unknown quantities; inventory enrichment
// replaces the grid with real stock lines.
func (t *Transformer) Transform(record supplier.Record, enrichment *supplier.Enrichment) (*catalog.UnifiedProduct, error) {
	raw, ok := record.(*Product)
	if !ok {
		return nil, fmt.Errorf("ascolour: unexpected record type %T", record)
	}
	if raw.StyleCode == "" {
		return nil, catalog.ErrMissingSKU
	}

	sku := catalog.PrefixSKU(catalog.SupplierASColour, raw.StyleCode)
	product := &catalog.UnifiedProduct{
		SKU:         sku,
		Name:        raw.StyleName,
		Brand:       "AS Colour",
		Description: raw.Description,
		Category:    catalog.NormalizeCategory(raw.ProductType, categoryOverrides),
		Supplier:    catalog.SupplierASColour,
		Images:      raw.Images,
		Pricing: catalog.Pricing{
			BasePrice: raw.Pricing.Wholesale,
			Currency:  currencyOrDefault(raw.Pricing.Currency),
		},
		Metadata: catalog.Metadata{
			SupplierProductID: fmt.Sprintf("%d", raw.WebID),
			LastSyncedAt:      t.now().UTC(),
		},
	}
	if raw.Composition != "" || raw.FabricWeight != "" || raw.Fit != "" {
		product.Specifications = &catalog.Specifications{
			Fabric: raw.Composition,
			Weight: raw.FabricWeight,
			Fit:    raw.Fit,
		}
	}

	product.Variants = t.buildVariants(sku, raw, enrichment)
	product.Pricing.Breaks = t.buildBreaks(raw, enrichment)
	product.RecomputeAvailability()

	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

func (t *Transformer) buildVariants(sku string, raw *Product, enrichment *supplier.Enrichment) []catalog.ProductVariant {
	if enrichment != nil && len(enrichment.Inventory) > 0 {
		return variantsFromInventory(sku, raw, enrichment.Inventory)
	}

	colours := raw.Colours
	if len(colours) == 0 {
		colours = []Colour{{Name: "One Colour"}}
	}
	sizes := raw.Sizes
	if len(sizes) == 0 {
		sizes = []string{"One Size"}
	}

	variants := make([]catalog.ProductVariant, 0, len(colours)*len(sizes))
	for _, colour := range colours {
		for _, size := range sizes {
			variants = append(variants, catalog.ProductVariant{
				SKU:   catalog.VariantSKU(sku, colour.Name, size),
				Color: catalog.VariantColor{Name: colour.Name, Hex: colour.Hex},
				Size:  size,
			})
		}
	}
	return variants
}

func variantsFromInventory(sku string, raw *Product, inventory []supplier.Record) []catalog.ProductVariant {
	hexes := make(map[string]string, len(raw.Colours))
	for _, colour := range raw.Colours {
		hexes[colour.Name] = colour.Hex
	}

	seen := make(map[string]bool, len(inventory))
	variants := make([]catalog.ProductVariant, 0, len(inventory))
	for _, record := range inventory {
		item, ok := record.(*InventoryItem)
		if !ok {
			continue
		}
		variantSKU := catalog.VariantSKU(sku, item.Colour, item.Size)
		if seen[variantSKU] {
			continue
		}
		seen[variantSKU] = true
		variants = append(variants, catalog.ProductVariant{
			SKU:      variantSKU,
			Color:    catalog.VariantColor{Name: item.Colour, Hex: hexes[item.Colour]},
			Size:     item.Size,
			Quantity: item.Quantity,
		})
	}
	return variants
}

func (t *Transformer) buildBreaks(raw *Product, enrichment *supplier.Enrichment) []catalog.PriceBreak {
	if enrichment == nil || len(enrichment.Pricing) == 0 {
		return nil
	}
	breaks := make([]catalog.PriceBreak, 0, len(enrichment.Pricing))
	for _, record := range enrichment.Pricing {
		tier, ok := record.(*PriceTier)
		if !ok {
			continue
		}
		breaks = append(breaks, catalog.PriceBreak{MinQty: tier.MinQty, Price: tier.Price})
	}
	return catalog.NormalizeBreaks(breaks)
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "USD"
	}
	return currency
}

var _ supplier.Transformer = (*Transformer)(nil)
