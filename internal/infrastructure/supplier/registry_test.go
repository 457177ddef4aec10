package supplier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop/catalog/internal/domain/catalog"
)

type stubClient struct {
	code catalog.SupplierCode
}

func (c *stubClient) Supplier() catalog.SupplierCode                { return c.code }
func (c *stubClient) Authenticate(context.Context) error            { return nil }
func (c *stubClient) HealthCheck(context.Context) error             { return nil }
func (c *stubClient) ListPage(context.Context, PageRequest) (*Page, error) {
	return &Page{}, nil
}
func (c *stubClient) GetProduct(context.Context, string) (Record, error) {
	return nil, catalog.ErrNotFound
}
func (c *stubClient) ListVariants(context.Context, string) ([]Record, error)  { return nil, nil }
func (c *stubClient) GetInventory(context.Context, string) ([]Record, error)  { return nil, nil }
func (c *stubClient) GetPricing(context.Context, string) ([]Record, error)   { return nil, nil }

type stubTransformer struct {
	code catalog.SupplierCode
}

func (t *stubTransformer) Supplier() catalog.SupplierCode { return t.code }
func (t *stubTransformer) Transform(Record, *Enrichment) (*catalog.UnifiedProduct, error) {
	return nil, catalog.ErrNotFound
}

func sourceFor(code catalog.SupplierCode) Source {
	return Source{Client: &stubClient{code: code}, Transformer: &stubTransformer{code: code}}
}

func TestRegistry_GetUnknownSupplier(t *testing.T) {
	r := NewRegistry()
	r.Register(sourceFor(catalog.SupplierSanMar))

	_, err := r.Get(catalog.SupplierASColour)
	assert.ErrorIs(t, err, catalog.ErrUnknownSupplier)
}

func TestRegistry_ForSKU(t *testing.T) {
	r := NewRegistry()
	r.Register(sourceFor(catalog.SupplierASColour))
	r.Register(sourceFor(catalog.SupplierSSActivewear))
	r.Register(sourceFor(catalog.SupplierSanMar))

	tests := []struct {
		sku       string
		wantCode  catalog.SupplierCode
		wantStyle string
	}{
		{"SANMAR-PC54", catalog.SupplierSanMar, "PC54"},
		{"ASCOLOUR-5001", catalog.SupplierASColour, "5001"},
		{"SSACTIVEWEAR-NL3600", catalog.SupplierSSActivewear, "NL3600"},
		{"5001", catalog.SupplierASColour, "5001"},
		{"G500", catalog.SupplierSSActivewear, "G500"},
		{"PC54", catalog.SupplierSanMar, "PC54"},
	}
	for _, tt := range tests {
		t.Run(tt.sku, func(t *testing.T) {
			source, code, styleID, err := r.ForSKU(tt.sku)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStyle, styleID)
			assert.Equal(t, tt.wantCode, source.Client.Supplier())
		})
	}
}

func TestRegistry_CodesInCanonicalOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(sourceFor(catalog.SupplierSanMar))
	r.Register(sourceFor(catalog.SupplierASColour))

	assert.Equal(t, []catalog.SupplierCode{catalog.SupplierASColour, catalog.SupplierSanMar}, r.Codes())
}
