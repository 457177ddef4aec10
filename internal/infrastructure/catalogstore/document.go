package catalogstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// ProductDocument is the curated-catalog representation of a product.
// The store keeps a flat document per SKU; documentId is assigned by
// the store on create and addresses the record on update.
type ProductDocument struct {
	DocumentID string `json:"documentId,omitempty"`

	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Supplier string `json:"supplier"`

	Description string   `json:"description,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`

	BasePrice decimal.Decimal      `json:"basePrice"`
	Currency  string               `json:"currency,omitempty"`
	Breaks    []catalog.PriceBreak `json:"priceBreaks,omitempty"`

	Variants []catalog.ProductVariant `json:"variants,omitempty"`

	InStock       bool `json:"inStock"`
	TotalQuantity int  `json:"totalQuantity"`

	// Curation fields owned by the store, never overwritten by sync.
	UsageCount      int     `json:"usageCount"`
	IsTopProduct    bool    `json:"isTopProduct,omitempty"`
	TopProductScore float64 `json:"topProductScore,omitempty"`

	SupplierProductID string    `json:"supplierProductId,omitempty"`
	LastSyncedAt      time.Time `json:"lastSyncedAt,omitempty"`
}

// NewProductDocument converts a normalized product into its store shape.
func NewProductDocument(p *catalog.UnifiedProduct) ProductDocument {
	colors := p.Colors()
	colorNames := make([]string, len(colors))
	for i, c := range colors {
		colorNames[i] = c.Name
	}
	return ProductDocument{
		SKU:               p.SKU,
		Name:              p.Name,
		Brand:             p.Brand,
		Category:          string(p.Category),
		Supplier:          string(p.Supplier),
		Description:       p.Description,
		Colors:            colorNames,
		Sizes:             p.Sizes(),
		BasePrice:         p.Pricing.BasePrice,
		Currency:          p.Pricing.Currency,
		Breaks:            p.Pricing.Breaks,
		Variants:          p.Variants,
		InStock:           p.Availability.InStock,
		TotalQuantity:     p.Availability.TotalQuantity,
		SupplierProductID: p.Metadata.SupplierProductID,
		LastSyncedAt:      p.Metadata.LastSyncedAt,
	}
}

// ToUnified rebuilds the canonical product from a store document.
func (d ProductDocument) ToUnified() *catalog.UnifiedProduct {
	p := &catalog.UnifiedProduct{
		SKU:         d.SKU,
		Name:        d.Name,
		Brand:       d.Brand,
		Category:    catalog.Category(d.Category),
		Supplier:    catalog.SupplierCode(d.Supplier),
		Description: d.Description,
		Variants:    d.Variants,
		Pricing: catalog.Pricing{
			BasePrice: d.BasePrice,
			Currency:  d.Currency,
			Breaks:    d.Breaks,
		},
		Metadata: catalog.Metadata{
			SupplierProductID: d.SupplierProductID,
			LastSyncedAt:      d.LastSyncedAt,
		},
	}
	if len(p.Variants) > 0 {
		p.RecomputeAvailability()
	} else {
		p.Availability = catalog.Availability{InStock: d.InStock, TotalQuantity: d.TotalQuantity}
	}
	return p
}
