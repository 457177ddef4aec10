package appendstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop/catalog/internal/domain/catalog"
)

func storedProduct(sku string) *catalog.UnifiedProduct {
	p := &catalog.UnifiedProduct{
		SKU:      sku,
		Name:     "Port & Company Core Cotton Tee",
		Brand:    "Port & Company",
		Category: catalog.CategoryTShirts,
		Supplier: catalog.SupplierSanMar,
		Variants: []catalog.ProductVariant{
			{SKU: sku + "-WHITE-M", Color: catalog.VariantColor{Name: "White"}, Size: "M", Quantity: 120},
		},
		Pricing: catalog.Pricing{BasePrice: decimal.RequireFromString("2.57"), Currency: "USD"},
	}
	p.RecomputeAvailability()
	return p
}

func TestStore_AppendAndReadFirst(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Append(storedProduct("SANMAR-PC54")))
	require.NoError(t, store.AppendBatch(catalog.SupplierSanMar, []*catalog.UnifiedProduct{
		storedProduct("SANMAR-PC55"),
		storedProduct("SANMAR-PC61"),
	}))

	got, err := store.ReadFirst(catalog.SupplierSanMar, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "SANMAR-PC54", got[0].SKU)
	assert.Equal(t, "SANMAR-PC55", got[1].SKU)
	assert.Equal(t, "SANMAR-PC61", got[2].SKU)
	assert.Equal(t, 120, got[0].Availability.TotalQuantity)

	count, err := store.Count(catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_ReadFirstHonorsLimit(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.AppendBatch(catalog.SupplierSanMar, []*catalog.UnifiedProduct{
		storedProduct("SANMAR-PC54"),
		storedProduct("SANMAR-PC55"),
		storedProduct("SANMAR-PC61"),
	}))

	got, err := store.ReadFirst(catalog.SupplierSanMar, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_SuppliersAreIsolated(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Append(storedProduct("SANMAR-PC54")))

	got, err := store.ReadFirst(catalog.SupplierASColour, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	store := New(t.TempDir())

	got, err := store.ReadFirst(catalog.SupplierSanMar, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	count, err := store.Count(catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_RejectsUnknownSupplier(t *testing.T) {
	store := New(t.TempDir())
	err := store.AppendBatch("alphabroder", []*catalog.UnifiedProduct{storedProduct("AB-1")})
	assert.ErrorIs(t, err, catalog.ErrUnknownSupplier)
}

func TestStore_CorruptLineReportsLineNumber(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, store.Append(storedProduct("SANMAR-PC54")))

	path := store.Path(catalog.SupplierSanMar)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := store.ReadFirst(catalog.SupplierSanMar, 10)
	require.Error(t, err)
	var perr *catalog.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "append-store", perr.Target)
	assert.Contains(t, err.Error(), "line 2")
	// Records before the corrupt line are still returned.
	require.Len(t, got, 1)
	assert.Equal(t, "SANMAR-PC54", got[0].SKU)
}

func TestStore_PathLayout(t *testing.T) {
	store := New("/var/lib/catalog")
	assert.Equal(t, filepath.Join("/var/lib/catalog", "sanmar", "products.jsonl"),
		store.Path(catalog.SupplierSanMar))
}
