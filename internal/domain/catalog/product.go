package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariantColor describes the color dimension of a variant.
type VariantColor struct {
	Name   string `json:"name"`
	Hex    string `json:"hex,omitempty"`
	Family string `json:"family,omitempty"`
}

// VariantPricing is an optional per-variant override of the product pricing.
type VariantPricing struct {
	Price     decimal.Decimal  `json:"price"`
	CasePrice *decimal.Decimal `json:"casePrice,omitempty"`
}

// ProductVariant is one color x size combination of a product.
type ProductVariant struct {
	SKU      string          `json:"sku"`
	Color    VariantColor    `json:"color"`
	Size     string          `json:"size"`
	InStock  bool            `json:"inStock"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Pricing  *VariantPricing `json:"pricing,omitempty"`
}

// Specifications holds optional descriptive metadata from supplier feeds.
type Specifications struct {
	Weight   string   `json:"weight,omitempty"`
	Fabric   string   `json:"fabric,omitempty"`
	Fit      string   `json:"fit,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Availability is the product-level aggregate of variant stock.
type Availability struct {
	InStock       bool `json:"inStock"`
	TotalQuantity int  `json:"totalQuantity"`
}

// Metadata links a canonical product back to its supplier record.
type Metadata struct {
	SupplierProductID string    `json:"supplierProductId"`
	LastSyncedAt      time.Time `json:"lastSyncedAt"`
}

// UnifiedProduct is the canonical cross-supplier representation of one style.
// Instances are value objects: transformers build them, the cache and append
// store serialize them, nothing mutates them concurrently.
type UnifiedProduct struct {
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand"`
	Description    string           `json:"description,omitempty"`
	Category       Category         `json:"category"`
	Supplier       SupplierCode     `json:"supplier"`
	Variants       []ProductVariant `json:"variants"`
	Images         []string         `json:"images,omitempty"`
	Pricing        Pricing          `json:"pricing"`
	Specifications *Specifications  `json:"specifications,omitempty"`
	Availability   Availability     `json:"availability"`
	Metadata       Metadata         `json:"metadata"`
}

// RecomputeAvailability rederives the product-level aggregate from the
// variant list: totalQuantity is the sum of variant quantities, inStock is
// true iff any variant has stock. Transformers call this after any variant
// mutation so the invariant holds on every product leaving the pipeline.
func (p *UnifiedProduct) RecomputeAvailability() {
	total := 0
	inStock := false
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Quantity < 0 {
			v.Quantity = 0
		}
		v.InStock = v.Quantity > 0
		total += v.Quantity
		inStock = inStock || v.InStock
	}
	p.Availability = Availability{InStock: inStock, TotalQuantity: total}
}

// Colors returns the distinct variant color names in first-seen order.
func (p *UnifiedProduct) Colors() []VariantColor {
	seen := map[string]bool{}
	var colors []VariantColor
	for _, v := range p.Variants {
		if v.Color.Name == "" || seen[v.Color.Name] {
			continue
		}
		seen[v.Color.Name] = true
		colors = append(colors, v.Color)
	}
	return colors
}

// Sizes returns the distinct variant sizes in first-seen order.
func (p *UnifiedProduct) Sizes() []string {
	seen := map[string]bool{}
	var sizes []string
	for _, v := range p.Variants {
		if v.Size == "" || seen[v.Size] {
			continue
		}
		seen[v.Size] = true
		sizes = append(sizes, v.Size)
	}
	return sizes
}

// Variant looks up a variant by its full SKU.
func (p *UnifiedProduct) Variant(sku string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// Validate checks the structural invariants of a transformed product.
func (p *UnifiedProduct) Validate() error {
	if p.SKU == "" {
		return ErrMissingSKU
	}
	if !p.Supplier.IsValid() {
		return ErrUnknownSupplier
	}
	if len(p.Variants) == 0 {
		return ErrNoVariants
	}
	seen := make(map[string]bool, len(p.Variants))
	total := 0
	anyStock := false
	for _, v := range p.Variants {
		if v.SKU == "" || seen[v.SKU] {
			return ErrDuplicateVariantSKU
		}
		seen[v.SKU] = true
		total += v.Quantity
		anyStock = anyStock || v.Quantity > 0
	}
	if p.Availability.TotalQuantity != total || p.Availability.InStock != anyStock {
		return ErrAvailabilityMismatch
	}
	return nil
}
