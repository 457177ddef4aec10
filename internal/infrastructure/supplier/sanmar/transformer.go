package sanmar

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

// categoryOverrides maps SanMar CATEGORY_NAME values onto the canonical
// categories where the shared table would miss them.
var categoryOverrides = map[string]catalog.Category{
	"t-shirts":           catalog.CategoryTShirts,
	"polos/knits":        catalog.CategoryPolos,
	"sweatshirts/fleece": catalog.CategoryHoodies,
	"activewear":         catalog.CategoryTShirts,
	"outerwear":          catalog.CategoryJackets,
	"workwear":           catalog.CategoryJackets,
	"woven shirts":       catalog.CategoryPolos,
	"infant & toddler":   catalog.CategoryYouth,
	"caps":               catalog.CategoryHats,
	"bags":               catalog.CategoryBags,
	"accessories":        catalog.CategoryAccessories,
}

// Transformer normalizes grouped SanMar feed rows. The bulk feed needs
// no enrichment: every row already carries color, size, quantity, and
// prices.
type Transformer struct {
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

func (t *Transformer) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }

func (t *Transformer) Transform(record supplier.Record, _ *supplier.Enrichment) (*catalog.UnifiedProduct, error) {
	style, ok := record.(*Style)
	if !ok {
		return nil, fmt.Errorf("sanmar: unexpected record type %T", record)
	}
	if style.Code == "" {
		return nil, catalog.ErrMissingSKU
	}
	if len(style.Rows) == 0 {
		return nil, catalog.ErrNoVariants
	}

	head := style.Rows[0]
	sku := catalog.PrefixSKU(catalog.SupplierSanMar, style.Code)
	product := &catalog.UnifiedProduct{
		SKU:         sku,
		Name:        head.Title,
		Brand:       head.Mill,
		Description: head.Description,
		Category:    catalog.NormalizeCategory(head.Category, categoryOverrides),
		Supplier:    catalog.SupplierSanMar,
		Metadata: catalog.Metadata{
			SupplierProductID: style.Code,
			LastSyncedAt:      t.now().UTC(),
		},
	}

	basePrice := lowestPiecePrice(style.Rows)
	product.Pricing = catalog.Pricing{BasePrice: basePrice, Currency: "USD"}

	seen := make(map[string]bool, len(style.Rows))
	imageSeen := make(map[string]bool)
	for _, row := range style.Rows {
		variantSKU := catalog.VariantSKU(sku, row.ColorName, row.Size)
		if seen[variantSKU] {
			continue
		}
		seen[variantSKU] = true

		variant := catalog.ProductVariant{
			SKU:      variantSKU,
			Color:    catalog.VariantColor{Name: row.ColorName},
			Size:     row.Size,
			Quantity: row.Quantity,
			ImageURL: row.FrontImage,
		}
		if (!row.PiecePrice.IsZero() && !row.PiecePrice.Equal(basePrice)) || row.CasePrice != nil {
			variant.Pricing = &catalog.VariantPricing{Price: row.PiecePrice, CasePrice: row.CasePrice}
		}
		product.Variants = append(product.Variants, variant)

		if row.FrontImage != "" && !imageSeen[row.FrontImage] {
			imageSeen[row.FrontImage] = true
			product.Images = append(product.Images, row.FrontImage)
		}
	}

	product.RecomputeAvailability()
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

func lowestPiecePrice(rows []*FeedRow) decimal.Decimal {
	var lowest decimal.Decimal
	for _, row := range rows {
		if row.PiecePrice.IsZero() {
			continue
		}
		if lowest.IsZero() || row.PiecePrice.LessThan(lowest) {
			lowest = row.PiecePrice
		}
	}
	return lowest
}

var _ supplier.Transformer = (*Transformer)(nil)
