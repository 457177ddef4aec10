// Package cache is the tiered TTL store in front of the curated catalog and
// the live supplier APIs. Three independently-expiring classes hold different
// slices of a product: descriptive catalog data (long-lived), pricing
// (medium), and inventory (short, volatile). The cache is best-effort
// everywhere: callers log and continue on failure.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Class names one TTL tier. Each class owns its key namespace.
type Class string

const (
	ClassCatalog   Class = "catalog"
	ClassPricing   Class = "pricing"
	ClassInventory Class = "inventory"
)

// Classes lists every tier, longest-lived first.
func Classes() []Class {
	return []Class{ClassCatalog, ClassPricing, ClassInventory}
}

// TTLs configures the lifetime of each class.
type TTLs struct {
	Catalog   time.Duration
	Pricing   time.Duration
	Inventory time.Duration
}

// DefaultTTLs are the production tier lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Catalog:   24 * time.Hour,
		Pricing:   time.Hour,
		Inventory: 15 * time.Minute,
	}
}

// For returns the TTL of a class.
func (t TTLs) For(class Class) time.Duration {
	switch class {
	case ClassPricing:
		return t.Pricing
	case ClassInventory:
		return t.Inventory
	default:
		return t.Catalog
	}
}

// Key builds the namespaced key for one product in one class.
func Key(class Class, supplier catalog.SupplierCode, sku string) string {
	return fmt.Sprintf("%s:%s:%s", class, supplier, sku)
}

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache: miss")

// InventorySnapshot is the short-lived per-product stock entry.
type InventorySnapshot struct {
	Variants     []catalog.ProductVariant `json:"variants"`
	Availability catalog.Availability     `json:"availability"`
	CachedAt     time.Time                `json:"cachedAt"`
}

// Stats reports how many live keys each class holds.
type Stats map[Class]int64

// ProductCache is the tiered cache contract. A full product write populates
// all three classes in one call per SKU, so a partially-written product is
// never visible: each class entry is a single serialized value.
type ProductCache interface {
	SetProduct(ctx context.Context, product *catalog.UnifiedProduct) error
	SetProductsBatch(ctx context.Context, products []*catalog.UnifiedProduct) error
	GetProduct(ctx context.Context, supplier catalog.SupplierCode, sku string) (*catalog.UnifiedProduct, error)

	UpdatePricing(ctx context.Context, supplier catalog.SupplierCode, sku string, pricing catalog.Pricing) error
	GetPricing(ctx context.Context, supplier catalog.SupplierCode, sku string) (*catalog.Pricing, error)

	UpdateInventory(ctx context.Context, supplier catalog.SupplierCode, sku string, snapshot InventorySnapshot) error
	GetInventory(ctx context.Context, supplier catalog.SupplierCode, sku string) (*InventorySnapshot, error)

	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}
