// Package supplier defines the contracts every supplier integration
// implements: a Client that fetches raw records over the supplier's own
// protocol, and a Transformer that normalizes those records into the
// canonical product schema. Raw record shapes stay inside each
// supplier's package; only this package's interfaces cross the boundary.
package supplier

import (
	"context"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Record is one raw product record as the supplier returned it. Each
// supplier package defines its own concrete record types; the
// Transformer of the same supplier is the only consumer that downcasts.
type Record interface {
	Supplier() catalog.SupplierCode
	RecordID() string
}

// PageRequest addresses one page of a supplier listing. UpdatedSince is
// zero for full syncs; when set, clients that support delta queries
// filter server-side and the transformer layer filters the rest.
type PageRequest struct {
	Page         int
	PageSize     int
	UpdatedSince time.Time
	Category     string
	Brand        string
}

// Page is one page of raw records. HasMore is false on the final page;
// bulk-file suppliers return everything in a single page.
type Page struct {
	Records []Record
	HasMore bool
}

// Enrichment carries the optional per-product detail fetches. Any slice
// may be nil when the corresponding enrichment was skipped; transformers
// must produce a valid product from the base record alone.
type Enrichment struct {
	Variants  []Record
	Inventory []Record
	Pricing   []Record
}

// Client fetches raw records from one supplier. Implementations route
// every network call through the shared rate limiter and retry
// combinator. Authenticate is a no-op for key-only suppliers.
type Client interface {
	Supplier() catalog.SupplierCode
	Authenticate(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	ListPage(ctx context.Context, req PageRequest) (*Page, error)
	GetProduct(ctx context.Context, id string) (Record, error)
	ListVariants(ctx context.Context, id string) ([]Record, error)
	GetInventory(ctx context.Context, id string) ([]Record, error)
	GetPricing(ctx context.Context, id string) ([]Record, error)
}

// Transformer normalizes one supplier's raw records. Implementations are
// pure: no I/O, no retained state between calls.
type Transformer interface {
	Supplier() catalog.SupplierCode
	Transform(record Record, enrichment *Enrichment) (*catalog.UnifiedProduct, error)
}

// Source pairs a supplier's client with its transformer.
type Source struct {
	Client      Client
	Transformer Transformer
}
