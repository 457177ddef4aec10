// Package query is the read façade over the synced catalog. Every lookup
// resolves the cheapest source first: the tiered cache, then the curated
// catalog store, then a live supplier fetch, with hits written back through
// the cache on the way out.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/cache"
	"github.com/printshop/catalog/internal/infrastructure/catalogstore"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

// DefaultMaxStockVariants bounds how many variants a stock check returns.
const DefaultMaxStockVariants = 200

// CatalogStore is the slice of the curated store client the query service
// reads through. Nil disables the store tier.
type CatalogStore interface {
	GetProduct(ctx context.Context, sku string) (*catalogstore.ProductDocument, error)
	ListTopProducts(ctx context.Context, limit int) ([]catalogstore.ProductDocument, error)
	TrackUsage(ctx context.Context, sku string) error
}

var _ CatalogStore = (*catalogstore.Client)(nil)

// Service answers catalog lookups for downstream consumers.
type Service struct {
	registry *supplier.Registry
	cache    cache.ProductCache
	store    CatalogStore
	log      *zap.Logger

	maxStockVariants int
}

// New builds a query service. store may be nil.
func New(registry *supplier.Registry, productCache cache.ProductCache, store CatalogStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		registry:         registry,
		cache:            productCache,
		store:            store,
		log:              log,
		maxStockVariants: DefaultMaxStockVariants,
	}
}

// StockResult is the answer to a stock check, optionally narrowed by color
// and size.
type StockResult struct {
	SKU           string                   `json:"sku"`
	InStock       bool                     `json:"inStock"`
	TotalQuantity int                      `json:"totalQuantity"`
	Variants      []catalog.ProductVariant `json:"variants"`
	Truncated     bool                     `json:"truncated,omitempty"`
	CheckedAt     time.Time                `json:"checkedAt"`
}

// PricingResult resolves pricing for one quantity, or carries the full break
// table when no quantity was asked for.
type PricingResult struct {
	SKU       string               `json:"sku"`
	Currency  string               `json:"currency"`
	Quantity  int                  `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal     `json:"unitPrice,omitempty"`
	Break     *catalog.PriceBreak  `json:"break,omitempty"`
	BasePrice decimal.Decimal      `json:"basePrice"`
	Breaks    []catalog.PriceBreak `json:"breaks,omitempty"`
}

// resolve maps a caller-supplied SKU (prefixed or bare) to its supplier
// source, canonical SKU, and supplier-native style ID.
func (s *Service) resolve(sku string) (supplier.Source, string, string, error) {
	source, code, styleID, err := s.registry.ForSKU(strings.TrimSpace(sku))
	if err != nil {
		return supplier.Source{}, "", "", err
	}
	return source, catalog.PrefixSKU(code, styleID), styleID, nil
}

// GetProduct returns the canonical product for a SKU, trying cache, curated
// store, then the live supplier.
func (s *Service) GetProduct(ctx context.Context, sku string) (*catalog.UnifiedProduct, error) {
	source, canonical, styleID, err := s.resolve(sku)
	if err != nil {
		return nil, err
	}
	code := source.Client.Supplier()

	if product, err := s.cache.GetProduct(ctx, code, canonical); err == nil {
		return product, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache read failed", zap.String("sku", canonical), zap.Error(err))
	}

	if s.store != nil {
		doc, err := s.store.GetProduct(ctx, canonical)
		switch {
		case err == nil:
			product := doc.ToUnified()
			s.writeThrough(ctx, product)
			return product, nil
		case errors.Is(err, catalog.ErrNotFound):
			// fall through to the live supplier
		default:
			s.log.Warn("catalog store read failed", zap.String("sku", canonical), zap.Error(err))
		}
	}

	return s.liveProduct(ctx, source, canonical, styleID, false)
}

// liveProduct fetches the product from the supplier and writes it through the
// cache. Stock levels live on the inventory enrichment, not the listing
// record; requireInventory makes a failed enrichment fetch fatal instead of
// degrading to the bare record.
func (s *Service) liveProduct(ctx context.Context, source supplier.Source, canonical, styleID string, requireInventory bool) (*catalog.UnifiedProduct, error) {
	record, err := source.Client.GetProduct(ctx, styleID)
	if err != nil {
		return nil, err
	}

	var enrichment *supplier.Enrichment
	inventory, err := source.Client.GetInventory(ctx, styleID)
	switch {
	case err == nil:
		enrichment = &supplier.Enrichment{Inventory: inventory}
	case requireInventory:
		return nil, err
	default:
		s.log.Warn("live inventory fetch failed", zap.String("sku", canonical), zap.Error(err))
	}

	product, err := source.Transformer.Transform(record, enrichment)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, product)
	return product, nil
}

// CheckStock reports variant-level availability, optionally filtered by
// color and size. The variant list is capped; totals always cover the full
// filtered set.
func (s *Service) CheckStock(ctx context.Context, sku, color, size string) (*StockResult, error) {
	source, canonical, styleID, err := s.resolve(sku)
	if err != nil {
		return nil, err
	}
	code := source.Client.Supplier()

	variants, err := s.stockVariants(ctx, source, code, canonical, styleID, sku)
	if err != nil {
		return nil, err
	}

	var filtered []catalog.ProductVariant
	total := 0
	inStock := false
	for _, v := range variants {
		if color != "" && !strings.EqualFold(v.Color.Name, color) {
			continue
		}
		if size != "" && !strings.EqualFold(v.Size, size) {
			continue
		}
		filtered = append(filtered, v)
		total += v.Quantity
		inStock = inStock || v.InStock
	}

	result := &StockResult{
		SKU:           canonical,
		InStock:       inStock,
		TotalQuantity: total,
		Variants:      filtered,
		CheckedAt:     time.Now().UTC(),
	}
	if len(result.Variants) > s.maxStockVariants {
		result.Variants = result.Variants[:s.maxStockVariants]
		result.Truncated = true
	}
	return result, nil
}

// stockVariants reads the short-lived inventory tier first. On a miss the
// answer has to come from a live inventory fetch: the listing record alone
// carries no quantities for the REST suppliers. Only when the live fetch
// fails does the last synced product stand in.
func (s *Service) stockVariants(ctx context.Context, source supplier.Source, code catalog.SupplierCode, canonical, styleID, sku string) ([]catalog.ProductVariant, error) {
	if snapshot, err := s.cache.GetInventory(ctx, code, canonical); err == nil {
		return snapshot.Variants, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("inventory cache read failed", zap.String("sku", canonical), zap.Error(err))
	}

	product, err := s.liveProduct(ctx, source, canonical, styleID, true)
	if err == nil {
		return product.Variants, nil
	}
	s.log.Warn("live stock fetch failed, using last synced product",
		zap.String("sku", canonical), zap.Error(err))

	product, err = s.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}
	return product.Variants, nil
}

// Bounds for the curated top-product listing.
const (
	DefaultTopProductsLimit = 10
	MaxTopProductsLimit     = 50
)

// ListTopProducts returns the curated best sellers, highest score first.
// Only the catalog store carries curation data, so a nil store yields an
// empty list.
func (s *Service) ListTopProducts(ctx context.Context, limit int) ([]*catalog.UnifiedProduct, error) {
	if limit <= 0 {
		limit = DefaultTopProductsLimit
	}
	if limit > MaxTopProductsLimit {
		limit = MaxTopProductsLimit
	}
	if s.store == nil {
		return nil, nil
	}

	docs, err := s.store.ListTopProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	products := make([]*catalog.UnifiedProduct, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].ToUnified())
	}
	return products, nil
}

// GetColorsAvailable lists the distinct colors the product ships in.
func (s *Service) GetColorsAvailable(ctx context.Context, sku string) ([]catalog.VariantColor, error) {
	product, err := s.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}
	return product.Colors(), nil
}

// GetPricing resolves pricing. With quantity > 0 it returns the applicable
// tier's unit price; otherwise the full break table.
func (s *Service) GetPricing(ctx context.Context, sku string, quantity int) (*PricingResult, error) {
	source, canonical, _, err := s.resolve(sku)
	if err != nil {
		return nil, err
	}
	code := source.Client.Supplier()

	pricing, err := s.cache.GetPricing(ctx, code, canonical)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("pricing cache read failed", zap.String("sku", canonical), zap.Error(err))
		}
		product, err := s.GetProduct(ctx, sku)
		if err != nil {
			return nil, err
		}
		pricing = &product.Pricing
	}

	result := &PricingResult{
		SKU:       canonical,
		Currency:  pricing.Currency,
		BasePrice: pricing.BasePrice,
	}
	if quantity <= 0 {
		result.Breaks = pricing.Breaks
		return result, nil
	}

	result.Quantity = quantity
	unit := pricing.PriceFor(quantity)
	result.UnitPrice = &unit
	if tier, ok := pricing.BreakFor(quantity); ok {
		result.Break = &tier
	}
	return result, nil
}

// TrackProductUsage bumps the product's usage counter in the curated store.
// Tracking is best-effort: failures are logged, never surfaced.
func (s *Service) TrackProductUsage(ctx context.Context, sku string) {
	if s.store == nil {
		return
	}
	_, canonical, _, err := s.resolve(sku)
	if err != nil {
		s.log.Warn("usage tracking skipped", zap.String("sku", sku), zap.Error(err))
		return
	}
	if err := s.store.TrackUsage(ctx, canonical); err != nil {
		s.log.Warn("usage tracking failed", zap.String("sku", canonical), zap.Error(err))
	}
}

// writeThrough repopulates every cache tier for a freshly-resolved product.
func (s *Service) writeThrough(ctx context.Context, product *catalog.UnifiedProduct) {
	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.log.Warn("cache write-through failed", zap.String("sku", product.SKU), zap.Error(err))
	}
}
