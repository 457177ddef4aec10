package supplier

import (
	"fmt"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Registry holds the configured supplier sources. It is populated once
// at startup and read-only afterwards.
type Registry struct {
	sources map[catalog.SupplierCode]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[catalog.SupplierCode]Source)}
}

// Register adds a source under its client's supplier code, replacing
// any previous registration.
func (r *Registry) Register(source Source) {
	r.sources[source.Client.Supplier()] = source
}

// Get returns the source for a supplier code.
func (r *Registry) Get(code catalog.SupplierCode) (Source, error) {
	source, ok := r.sources[code]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", catalog.ErrUnknownSupplier, code)
	}
	return source, nil
}

// ForSKU resolves a SKU, prefixed or bare, to its source and the bare
// style identifier the supplier's API expects. Bare SKUs are attributed
// by shape.
func (r *Registry) ForSKU(sku string) (Source, catalog.SupplierCode, string, error) {
	code, styleID := catalog.SplitSKU(sku)
	source, err := r.Get(code)
	if err != nil {
		return Source{}, code, styleID, err
	}
	return source, code, styleID, nil
}

// Codes lists the registered suppliers in the canonical order.
func (r *Registry) Codes() []catalog.SupplierCode {
	var codes []catalog.SupplierCode
	for _, code := range catalog.AllSuppliers() {
		if _, ok := r.sources[code]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}
