package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// RedisProductCache implements ProductCache on a shared Redis connection.
// The client's pool makes it safe for concurrent query-service callers.
type RedisProductCache struct {
	client *redis.Client
	ttls   TTLs
}

// NewRedisProductCache connects to Redis and verifies the connection.
func NewRedisProductCache(url string, ttls TTLs) (*RedisProductCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to redis: %w", err)
	}

	return &RedisProductCache{client: client, ttls: ttls}, nil
}

// NewRedisProductCacheWithClient wraps an existing client. Useful for tests
// and for sharing one pool across components.
func NewRedisProductCacheWithClient(client *redis.Client, ttls TTLs) *RedisProductCache {
	return &RedisProductCache{client: client, ttls: ttls}
}

func (c *RedisProductCache) set(ctx context.Context, class Class, supplier catalog.SupplierCode, sku string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s entry: %w", class, err)
	}
	if err := c.client.Set(ctx, Key(class, supplier, sku), payload, c.ttls.For(class)).Err(); err != nil {
		return &catalog.PersistenceError{Target: "cache", Err: err}
	}
	return nil
}

func (c *RedisProductCache) get(ctx context.Context, class Class, supplier catalog.SupplierCode, sku string, out any) error {
	payload, err := c.client.Get(ctx, Key(class, supplier, sku)).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return &catalog.PersistenceError{Target: "cache", Err: err}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		// A corrupt entry behaves like a miss so callers re-fetch.
		return ErrMiss
	}
	return nil
}

// SetProduct writes all three class entries for one product. Each entry is a
// single SET, so readers never observe a half-written SKU within a class.
func (c *RedisProductCache) SetProduct(ctx context.Context, product *catalog.UnifiedProduct) error {
	if err := c.set(ctx, ClassCatalog, product.Supplier, product.SKU, product); err != nil {
		return err
	}
	if err := c.set(ctx, ClassPricing, product.Supplier, product.SKU, product.Pricing); err != nil {
		return err
	}
	snapshot := InventorySnapshot{
		Variants:     product.Variants,
		Availability: product.Availability,
		CachedAt:     time.Now().UTC(),
	}
	return c.set(ctx, ClassInventory, product.Supplier, product.SKU, snapshot)
}

// SetProductsBatch pipelines the class writes for a page of products.
func (c *RedisProductCache) SetProductsBatch(ctx context.Context, products []*catalog.UnifiedProduct) error {
	pipe := c.client.Pipeline()
	now := time.Now().UTC()
	for _, product := range products {
		catalogPayload, err := json.Marshal(product)
		if err != nil {
			return fmt.Errorf("cache: marshal catalog entry for %s: %w", product.SKU, err)
		}
		pricingPayload, err := json.Marshal(product.Pricing)
		if err != nil {
			return fmt.Errorf("cache: marshal pricing entry for %s: %w", product.SKU, err)
		}
		inventoryPayload, err := json.Marshal(InventorySnapshot{
			Variants:     product.Variants,
			Availability: product.Availability,
			CachedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("cache: marshal inventory entry for %s: %w", product.SKU, err)
		}
		pipe.Set(ctx, Key(ClassCatalog, product.Supplier, product.SKU), catalogPayload, c.ttls.Catalog)
		pipe.Set(ctx, Key(ClassPricing, product.Supplier, product.SKU), pricingPayload, c.ttls.Pricing)
		pipe.Set(ctx, Key(ClassInventory, product.Supplier, product.SKU), inventoryPayload, c.ttls.Inventory)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &catalog.PersistenceError{Target: "cache", Err: err}
	}
	return nil
}

// GetProduct reads the catalog-class entry for a SKU.
func (c *RedisProductCache) GetProduct(ctx context.Context, supplier catalog.SupplierCode, sku string) (*catalog.UnifiedProduct, error) {
	var product catalog.UnifiedProduct
	if err := c.get(ctx, ClassCatalog, supplier, sku, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdatePricing refreshes only the pricing-class entry.
func (c *RedisProductCache) UpdatePricing(ctx context.Context, supplier catalog.SupplierCode, sku string, pricing catalog.Pricing) error {
	return c.set(ctx, ClassPricing, supplier, sku, pricing)
}

// GetPricing reads the pricing-class entry for a SKU.
func (c *RedisProductCache) GetPricing(ctx context.Context, supplier catalog.SupplierCode, sku string) (*catalog.Pricing, error) {
	var pricing catalog.Pricing
	if err := c.get(ctx, ClassPricing, supplier, sku, &pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

// UpdateInventory refreshes only the inventory-class entry.
func (c *RedisProductCache) UpdateInventory(ctx context.Context, supplier catalog.SupplierCode, sku string, snapshot InventorySnapshot) error {
	return c.set(ctx, ClassInventory, supplier, sku, snapshot)
}

// GetInventory reads the inventory-class entry for a SKU.
func (c *RedisProductCache) GetInventory(ctx context.Context, supplier catalog.SupplierCode, sku string) (*InventorySnapshot, error) {
	var snapshot InventorySnapshot
	if err := c.get(ctx, ClassInventory, supplier, sku, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Stats counts live keys per class by scanning each namespace.
func (c *RedisProductCache) Stats(ctx context.Context) (Stats, error) {
	stats := make(Stats, 3)
	for _, class := range Classes() {
		var count int64
		iter := c.client.Scan(ctx, 0, string(class)+":*", 500).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			return nil, &catalog.PersistenceError{Target: "cache", Err: err}
		}
		stats[class] = count
	}
	return stats, nil
}

// Clear deletes every key in all three namespaces.
func (c *RedisProductCache) Clear(ctx context.Context) error {
	for _, class := range Classes() {
		iter := c.client.Scan(ctx, 0, string(class)+":*", 500).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return &catalog.PersistenceError{Target: "cache", Err: err}
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return &catalog.PersistenceError{Target: "cache", Err: err}
			}
		}
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisProductCache) Close() error {
	return c.client.Close()
}

var _ ProductCache = (*RedisProductCache)(nil)
