package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// MemoryProductCache is an in-process ProductCache for tests and for running
// without a cache service. Entries are stored serialized so reads get copies,
// matching the Redis implementation's semantics.
type MemoryProductCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttls    TTLs
	now     func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryProductCache builds an empty in-memory cache.
func NewMemoryProductCache(ttls TTLs) *MemoryProductCache {
	return &MemoryProductCache{
		entries: make(map[string]memoryEntry),
		ttls:    ttls,
		now:     time.Now,
	}
}

// SetNow injects a clock for TTL tests.
func (c *MemoryProductCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *MemoryProductCache) set(class Class, supplier catalog.SupplierCode, sku string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(class, supplier, sku)] = memoryEntry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttls.For(class)),
	}
	return nil
}

func (c *MemoryProductCache) get(class Class, supplier catalog.SupplierCode, sku string, out any) error {
	c.mu.RLock()
	entry, ok := c.entries[Key(class, supplier, sku)]
	now := c.now()
	c.mu.RUnlock()
	if !ok || now.After(entry.expiresAt) {
		return ErrMiss
	}
	return json.Unmarshal(entry.payload, out)
}

func (c *MemoryProductCache) SetProduct(_ context.Context, product *catalog.UnifiedProduct) error {
	if err := c.set(ClassCatalog, product.Supplier, product.SKU, product); err != nil {
		return err
	}
	if err := c.set(ClassPricing, product.Supplier, product.SKU, product.Pricing); err != nil {
		return err
	}
	return c.set(ClassInventory, product.Supplier, product.SKU, InventorySnapshot{
		Variants:     product.Variants,
		Availability: product.Availability,
		CachedAt:     c.now().UTC(),
	})
}

func (c *MemoryProductCache) SetProductsBatch(ctx context.Context, products []*catalog.UnifiedProduct) error {
	for _, product := range products {
		if err := c.SetProduct(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

func (c *MemoryProductCache) GetProduct(_ context.Context, supplier catalog.SupplierCode, sku string) (*catalog.UnifiedProduct, error) {
	var product catalog.UnifiedProduct
	if err := c.get(ClassCatalog, supplier, sku, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *MemoryProductCache) UpdatePricing(_ context.Context, supplier catalog.SupplierCode, sku string, pricing catalog.Pricing) error {
	return c.set(ClassPricing, supplier, sku, pricing)
}

func (c *MemoryProductCache) GetPricing(_ context.Context, supplier catalog.SupplierCode, sku string) (*catalog.Pricing, error) {
	var pricing catalog.Pricing
	if err := c.get(ClassPricing, supplier, sku, &pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

func (c *MemoryProductCache) UpdateInventory(_ context.Context, supplier catalog.SupplierCode, sku string, snapshot InventorySnapshot) error {
	return c.set(ClassInventory, supplier, sku, snapshot)
}

func (c *MemoryProductCache) GetInventory(_ context.Context, supplier catalog.SupplierCode, sku string) (*InventorySnapshot, error) {
	var snapshot InventorySnapshot
	if err := c.get(ClassInventory, supplier, sku, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *MemoryProductCache) Stats(_ context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	stats := Stats{ClassCatalog: 0, ClassPricing: 0, ClassInventory: 0}
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		for _, class := range Classes() {
			if strings.HasPrefix(key, string(class)+":") {
				stats[class]++
				break
			}
		}
	}
	return stats, nil
}

func (c *MemoryProductCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}

func (c *MemoryProductCache) Close() error { return nil }

var _ ProductCache = (*MemoryProductCache)(nil)
