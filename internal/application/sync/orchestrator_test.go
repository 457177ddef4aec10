package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/appendstore"
	"github.com/printshop/catalog/internal/infrastructure/cache"
	"github.com/printshop/catalog/internal/infrastructure/catalogstore"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

type fakeRecord struct {
	id      string
	updated time.Time
}

func (r fakeRecord) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }
func (r fakeRecord) RecordID() string               { return r.id }

type inventoryRecord struct {
	styleID  string
	quantity int
}

func (r inventoryRecord) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }
func (r inventoryRecord) RecordID() string               { return r.styleID }

type fakeClient struct {
	records   []fakeRecord
	inventory map[string]int
	authErr   error
	healthErr error
	listErr   error
	rowErrors []*catalog.RowError

	authCalls int
	listCalls int
}

func (c *fakeClient) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }

func (c *fakeClient) Authenticate(ctx context.Context) error {
	c.authCalls++
	return c.authErr
}

func (c *fakeClient) HealthCheck(ctx context.Context) error { return c.healthErr }

func (c *fakeClient) ListPage(ctx context.Context, req supplier.PageRequest) (*supplier.Page, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}

	var matched []supplier.Record
	for _, rec := range c.records {
		if !req.UpdatedSince.IsZero() && !rec.updated.After(req.UpdatedSince) {
			continue
		}
		matched = append(matched, rec)
	}

	start := (req.Page - 1) * req.PageSize
	if start >= len(matched) {
		return &supplier.Page{}, nil
	}
	end := min(start+req.PageSize, len(matched))
	return &supplier.Page{Records: matched[start:end], HasMore: end < len(matched)}, nil
}

func (c *fakeClient) GetProduct(ctx context.Context, id string) (supplier.Record, error) {
	for _, rec := range c.records {
		if rec.id == id {
			return rec, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (c *fakeClient) ListVariants(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.GetInventory(ctx, id)
}

func (c *fakeClient) GetInventory(ctx context.Context, id string) ([]supplier.Record, error) {
	qty, ok := c.inventory[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return []supplier.Record{inventoryRecord{styleID: id, quantity: qty}}, nil
}

func (c *fakeClient) GetPricing(ctx context.Context, id string) ([]supplier.Record, error) {
	return nil, catalog.ErrNotFound
}

type rowErrorClient struct{ *fakeClient }

func (c rowErrorClient) RowErrors() []*catalog.RowError { return c.fakeClient.rowErrors }

type fakeTransformer struct {
	failID string
}

func (t fakeTransformer) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }

func (t fakeTransformer) Transform(record supplier.Record, enrichment *supplier.Enrichment) (*catalog.UnifiedProduct, error) {
	if record.RecordID() == t.failID {
		return nil, catalog.ErrNoVariants
	}

	quantity := 12
	if enrichment != nil {
		for _, rec := range enrichment.Inventory {
			if inv, ok := rec.(inventoryRecord); ok {
				quantity = inv.quantity
			}
		}
	}

	sku := catalog.PrefixSKU(catalog.SupplierSanMar, record.RecordID())
	product := &catalog.UnifiedProduct{
		SKU:      sku,
		Name:     "Style " + record.RecordID(),
		Brand:    "Port & Company",
		Category: catalog.CategoryTShirts,
		Supplier: catalog.SupplierSanMar,
		Variants: []catalog.ProductVariant{
			{SKU: sku + "-BLACK-L", Color: catalog.VariantColor{Name: "Black"}, Size: "L", Quantity: quantity},
		},
		Metadata: catalog.Metadata{SupplierProductID: record.RecordID(), LastSyncedAt: time.Now().UTC()},
	}
	product.RecomputeAvailability()
	return product, nil
}

type fakeStore struct {
	upserts []catalogstore.ProductDocument
	err     error
}

func (s *fakeStore) Upsert(ctx context.Context, doc catalogstore.ProductDocument) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, doc)
	return nil
}

func styleRecords(updated time.Time, ids ...string) []fakeRecord {
	records := make([]fakeRecord, len(ids))
	for i, id := range ids {
		records[i] = fakeRecord{id: id, updated: updated}
	}
	return records
}

type fixture struct {
	orch    *Orchestrator
	client  *fakeClient
	cache   cache.ProductCache
	appends *appendstore.Store
	store   *fakeStore
}

func newFixture(t *testing.T, client supplier.Client) *fixture {
	t.Helper()

	var raw *fakeClient
	switch c := client.(type) {
	case *fakeClient:
		raw = c
	case rowErrorClient:
		raw = c.fakeClient
	}

	registry := supplier.NewRegistry()
	registry.Register(supplier.Source{Client: client, Transformer: fakeTransformer{}})

	productCache := cache.NewMemoryProductCache(cache.DefaultTTLs())
	appends := appendstore.New(t.TempDir())
	store := &fakeStore{}

	orch := New(registry, productCache, appends, store, zap.NewNop())
	return &fixture{orch: orch, client: raw, cache: productCache, appends: appends, store: store}
}

func TestRun_FullSyncPersistsEverything(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "PC61", "K110", "PC90H", "DT6000")}
	f := newFixture(t, client)

	summary, err := f.orch.Run(context.Background(), Options{
		Supplier: catalog.SupplierSanMar,
		PageSize: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Zero(t, summary.Failed)

	count, err := f.appends.Count(catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	assert.Len(t, f.store.upserts, 5)

	cached, err := f.cache.GetProduct(context.Background(), catalog.SupplierSanMar, "SANMAR-PC54")
	require.NoError(t, err)
	assert.Equal(t, "SANMAR-PC54", cached.SKU)

	// Two pages of three, then a final empty check is never needed
	assert.Equal(t, 2, f.client.listCalls)
}

func TestRun_IncrementalSinceFilters(t *testing.T) {
	since := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	old := styleRecords(since.Add(-48*time.Hour), "PC54", "PC61", "K110")
	fresh := styleRecords(since.Add(24*time.Hour), "PC90H", "DT6000")

	client := &fakeClient{records: append(old, fresh...)}
	f := newFixture(t, client)

	summary, err := f.orch.Run(context.Background(), Options{
		Supplier: catalog.SupplierSanMar,
		Since:    since,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)

	count, err := f.appends.Count(catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	persisted, err := f.appends.ReadFirst(catalog.SupplierSanMar, 10)
	require.NoError(t, err)
	skus := []string{persisted[0].SKU, persisted[1].SKU}
	assert.ElementsMatch(t, []string{"SANMAR-PC90H", "SANMAR-DT6000"}, skus)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "PC61")}
	f := newFixture(t, client)
	outputDir := t.TempDir()

	summary, err := f.orch.Run(context.Background(), Options{
		Supplier:  catalog.SupplierSanMar,
		DryRun:    true,
		OutputDir: outputDir,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.True(t, summary.DryRun)

	count, err := f.appends.Count(catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.store.upserts)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_LimitCapsProcessing(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "PC61", "K110", "PC90H")}
	f := newFixture(t, client)

	summary, err := f.orch.Run(context.Background(), Options{
		Supplier: catalog.SupplierSanMar,
		Limit:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRun_TransformFailuresAreCollected(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "BROKEN", "K110")}

	registry := supplier.NewRegistry()
	registry.Register(supplier.Source{Client: client, Transformer: fakeTransformer{failID: "BROKEN"}})
	orch := New(registry, cache.NewMemoryProductCache(cache.DefaultTTLs()), appendstore.New(t.TempDir()), nil, zap.NewNop())

	summary, err := orch.Run(context.Background(), Options{Supplier: catalog.SupplierSanMar})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "BROKEN", summary.Errors[0].SKU)
	assert.Equal(t, "transform", summary.Errors[0].Stage)
}

func TestRun_BulkRowErrorsAreCounted(t *testing.T) {
	client := rowErrorClient{&fakeClient{
		records: styleRecords(time.Now(), "PC54"),
		rowErrors: []*catalog.RowError{
			{Line: 3, Reason: "missing style code"},
			{Line: 9, Reason: "invalid quantity"},
		},
	}}
	f := newFixture(t, client)

	summary, err := f.orch.Run(context.Background(), Options{Supplier: catalog.SupplierSanMar})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Errors, 2)
	assert.Equal(t, "line 3", summary.Errors[0].SKU)
	assert.Equal(t, "parse", summary.Errors[0].Stage)
}

func TestRun_AuthFailureAbortsBeforeListing(t *testing.T) {
	client := &fakeClient{
		records: styleRecords(time.Now(), "PC54"),
		authErr: &catalog.AuthError{Supplier: catalog.SupplierSanMar, Err: errors.New("bad credentials")},
	}
	f := newFixture(t, client)

	summary, err := f.orch.Run(context.Background(), Options{Supplier: catalog.SupplierSanMar})
	require.Error(t, err)

	var authErr *catalog.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Zero(t, f.client.listCalls)
	assert.Zero(t, summary.Processed)
}

func TestRun_UnknownSupplierRejected(t *testing.T) {
	f := newFixture(t, &fakeClient{})

	_, err := f.orch.Run(context.Background(), Options{Supplier: catalog.SupplierCode("alibaba")})
	assert.ErrorIs(t, err, catalog.ErrUnknownSupplier)
}

func TestRun_EnrichmentFeedsTransform(t *testing.T) {
	client := &fakeClient{
		records:   styleRecords(time.Now(), "PC54"),
		inventory: map[string]int{"PC54": 480},
	}
	f := newFixture(t, client)

	_, err := f.orch.Run(context.Background(), Options{
		Supplier:       catalog.SupplierSanMar,
		EnrichVariants: true,
	})
	require.NoError(t, err)

	cached, err := f.cache.GetProduct(context.Background(), catalog.SupplierSanMar, "SANMAR-PC54")
	require.NoError(t, err)
	assert.Equal(t, 480, cached.Availability.TotalQuantity)
}

func TestRun_WritesSessionArtifacts(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "BROKEN")}

	registry := supplier.NewRegistry()
	registry.Register(supplier.Source{Client: client, Transformer: fakeTransformer{failID: "BROKEN"}})
	outputDir := t.TempDir()
	orch := New(registry, cache.NewMemoryProductCache(cache.DefaultTTLs()), appendstore.New(t.TempDir()), nil, zap.NewNop())

	summary, err := orch.Run(context.Background(), Options{
		Supplier:  catalog.SupplierSanMar,
		OutputDir: outputDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	sessionDir := filepath.Join(outputDir, entries[0].Name())

	summaryData, err := os.ReadFile(filepath.Join(sessionDir, "summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(summaryData), `"succeeded": 1`)

	successData, err := os.ReadFile(filepath.Join(sessionDir, "success.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(successData), "SANMAR-PC54")

	errorData, err := os.ReadFile(filepath.Join(sessionDir, "errors.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(errorData), "BROKEN")

	logData, err := os.ReadFile(filepath.Join(sessionDir, "session.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "sync started")
	assert.Contains(t, string(logData), "sync finished")
}

func TestRun_CancelledContextStopsBetweenPages(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "PC61")}
	f := newFixture(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.orch.Run(ctx, Options{Supplier: catalog.SupplierSanMar})
	require.NoError(t, err)

	assert.Zero(t, summary.Processed)
	assert.Zero(t, f.client.listCalls)
}

func TestRun_PersistFailureIsPerRecord(t *testing.T) {
	client := &fakeClient{records: styleRecords(time.Now(), "PC54", "PC61")}

	registry := supplier.NewRegistry()
	registry.Register(supplier.Source{Client: client, Transformer: fakeTransformer{}})
	store := &fakeStore{err: &catalog.PersistenceError{Target: "catalog-store", Err: errors.New("boom")}}
	orch := New(registry, cache.NewMemoryProductCache(cache.DefaultTTLs()), appendstore.New(t.TempDir()), store, zap.NewNop())

	summary, err := orch.Run(context.Background(), Options{Supplier: catalog.SupplierSanMar})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Zero(t, summary.Succeeded)
	require.NotEmpty(t, summary.Errors)
	assert.Equal(t, "persist", summary.Errors[0].Stage)
}
