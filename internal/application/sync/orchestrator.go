// Package sync orchestrates a full supplier sync run: authenticate, walk the
// supplier listing page by page, transform every raw record into the canonical
// schema, and persist the results to the cache, the append log, and the
// curated catalog store. Per-record failures are collected on the session and
// never abort the run; only authentication and page-level fetch errors do.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	domainsync "github.com/printshop/catalog/internal/domain/sync"
	"github.com/printshop/catalog/internal/infrastructure/appendstore"
	"github.com/printshop/catalog/internal/infrastructure/cache"
	"github.com/printshop/catalog/internal/infrastructure/catalogstore"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

const (
	DefaultPageSize   = 100
	DefaultMaxPages   = 500
	DefaultChunkSize  = 10
	DefaultChunkDelay = time.Second
)

// Options selects what one sync run covers.
type Options struct {
	Supplier catalog.SupplierCode
	DryRun   bool

	// Limit caps total records processed; zero means unlimited.
	Limit    int
	Category string
	Brand    string
	// Since makes the run incremental: only records updated after it are
	// requested. Zero means a full sync.
	Since time.Time

	EnrichVariants bool
	EnrichPrices   bool

	PageSize int
	// MaxPages is the safety stop against suppliers that never report a
	// final page.
	MaxPages   int
	ChunkSize  int
	ChunkDelay time.Duration

	// OutputDir receives the per-session artifacts (summary, record files,
	// text log). Empty disables artifacts.
	OutputDir string
}

func (o *Options) applyDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkDelay < 0 {
		o.ChunkDelay = DefaultChunkDelay
	}
}

// CatalogStore is the slice of the curated store client the orchestrator
// needs. Nil disables the store leg of persistence.
type CatalogStore interface {
	Upsert(ctx context.Context, doc catalogstore.ProductDocument) error
}

var _ CatalogStore = (*catalogstore.Client)(nil)

// Orchestrator drives sync runs against registered supplier sources.
type Orchestrator struct {
	registry *supplier.Registry
	cache    cache.ProductCache
	appends  *appendstore.Store
	store    CatalogStore
	log      *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an orchestrator. store may be nil when no curated catalog store
// is configured; cache and appends are required.
func New(registry *supplier.Registry, productCache cache.ProductCache, appends *appendstore.Store, store CatalogStore, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		registry: registry,
		cache:    productCache,
		appends:  appends,
		store:    store,
		log:      log,
		sleep:    ctxSleep,
	}
}

type processed struct {
	id      string
	stage   string
	product *catalog.UnifiedProduct
	err     error
}

// Run executes one sync for the supplier named in opts and returns the
// session summary. Per-record failures land in the summary; the returned
// error is non-nil only when the run itself could not proceed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*domainsync.Summary, error) {
	opts.applyDefaults()

	source, err := o.registry.Get(opts.Supplier)
	if err != nil {
		return nil, err
	}

	session := domainsync.NewSession(opts.Supplier, opts.DryRun)
	log := o.log.With(
		zap.String("supplier", string(opts.Supplier)),
		zap.String("session_id", session.ID.String()),
	)

	var artifacts *artifactWriter
	if !opts.DryRun && opts.OutputDir != "" {
		artifacts, err = newArtifactWriter(opts.OutputDir, session)
		if err != nil {
			return nil, err
		}
		defer artifacts.close()
		log = artifacts.teeLogger(log)
	}

	log.Info("sync started",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("page_size", opts.PageSize),
		zap.Time("since", opts.Since),
	)

	if err := source.Client.Authenticate(ctx); err != nil {
		return o.finish(session, artifacts, log), fmt.Errorf("authenticate %s: %w", opts.Supplier, err)
	}
	if err := source.Client.HealthCheck(ctx); err != nil {
		return o.finish(session, artifacts, log), fmt.Errorf("health check %s: %w", opts.Supplier, err)
	}

	limitReached := false
	for page := 1; page <= opts.MaxPages; page++ {
		if ctx.Err() != nil {
			log.Warn("sync cancelled", zap.Int("page", page))
			break
		}

		p, err := source.Client.ListPage(ctx, supplier.PageRequest{
			Page:         page,
			PageSize:     opts.PageSize,
			UpdatedSince: opts.Since,
			Category:     opts.Category,
			Brand:        opts.Brand,
		})
		if err != nil {
			return o.finish(session, artifacts, log), fmt.Errorf("fetch page %d: %w", page, err)
		}

		records := p.Records
		if opts.Limit > 0 {
			remaining := opts.Limit - session.Processed
			if remaining <= 0 {
				limitReached = true
				break
			}
			if len(records) > remaining {
				records = records[:remaining]
				limitReached = true
			}
		}

		o.processPage(ctx, source, records, opts, session, artifacts, log)

		if limitReached || !p.HasMore {
			break
		}
		if page == opts.MaxPages {
			log.Warn("page cap reached before final page", zap.Int("max_pages", opts.MaxPages))
		}
	}

	// Bulk-feed suppliers report rows they could not parse after the page
	// walk; each one is a record that never reached the pipeline.
	if reporter, ok := source.Client.(interface{ RowErrors() []*catalog.RowError }); ok {
		for _, rowErr := range reporter.RowErrors() {
			session.RecordFailure(fmt.Sprintf("line %d", rowErr.Line), "parse", rowErr)
		}
	}

	summary := o.finish(session, artifacts, log)
	log.Info("sync finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.String("duration", summary.Duration),
	)
	return summary, nil
}

// processPage transforms and persists one page of records in chunks. Each
// chunk's enrichment fetches run concurrently; persistence stays sequential
// so the append log keeps feed order.
func (o *Orchestrator) processPage(ctx context.Context, source supplier.Source, records []supplier.Record, opts Options, session *domainsync.Session, artifacts *artifactWriter, log *zap.Logger) {
	for start := 0; start < len(records); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(records))
		chunk := records[start:end]

		results := make([]processed, len(chunk))
		var wg sync.WaitGroup
		for i, rec := range chunk {
			wg.Add(1)
			go func(i int, rec supplier.Record) {
				defer wg.Done()
				results[i] = o.processRecord(ctx, source, rec, opts, log)
			}(i, rec)
		}
		wg.Wait()

		for _, res := range results {
			switch {
			case res.err != nil:
				if errors.Is(res.err, catalog.ErrNotFound) {
					session.RecordSkip()
					continue
				}
				session.RecordFailure(res.id, res.stage, res.err)
			case opts.DryRun:
				session.RecordSuccess()
			default:
				if err := o.persist(ctx, res.product, log); err != nil {
					session.RecordFailure(res.product.SKU, "persist", err)
					continue
				}
				session.RecordSuccess()
				if artifacts != nil {
					if err := artifacts.writeSuccess(res.product); err != nil {
						log.Warn("session artifact write failed", zap.Error(err))
					}
				}
			}
		}

		if end < len(records) && opts.ChunkDelay > 0 {
			if err := o.sleep(ctx, opts.ChunkDelay); err != nil {
				return
			}
		}
	}
}

// processRecord runs the optional enrichment fetches and the transform for
// one raw record. Enrichment failures degrade to a base-record transform.
func (o *Orchestrator) processRecord(ctx context.Context, source supplier.Source, rec supplier.Record, opts Options, log *zap.Logger) processed {
	id := rec.RecordID()

	var enrichment *supplier.Enrichment
	if opts.EnrichVariants || opts.EnrichPrices {
		enrichment = &supplier.Enrichment{}
		if opts.EnrichVariants {
			inventory, err := source.Client.GetInventory(ctx, id)
			if err != nil {
				log.Warn("inventory enrichment failed", zap.String("record", id), zap.Error(err))
			} else {
				enrichment.Inventory = inventory
			}
		}
		if opts.EnrichPrices {
			pricing, err := source.Client.GetPricing(ctx, id)
			if err != nil {
				log.Warn("pricing enrichment failed", zap.String("record", id), zap.Error(err))
			} else {
				enrichment.Pricing = pricing
			}
		}
	}

	product, err := source.Transformer.Transform(rec, enrichment)
	if err != nil {
		return processed{id: id, stage: "transform", err: err}
	}
	return processed{id: id, product: product}
}

// persist writes one product to every configured sink. The append log and
// the catalog store are authoritative; a cache write failure is logged and
// tolerated.
func (o *Orchestrator) persist(ctx context.Context, product *catalog.UnifiedProduct, log *zap.Logger) error {
	if err := o.appends.Append(product); err != nil {
		return err
	}
	if err := o.cache.SetProduct(ctx, product); err != nil {
		log.Warn("cache write failed", zap.String("sku", product.SKU), zap.Error(err))
	}
	if o.store != nil {
		if err := o.store.Upsert(ctx, catalogstore.NewProductDocument(product)); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) finish(session *domainsync.Session, artifacts *artifactWriter, log *zap.Logger) *domainsync.Summary {
	session.Finish()
	summary := session.Summarize()
	if artifacts != nil {
		if err := artifacts.finalize(summary); err != nil {
			log.Warn("session summary write failed", zap.Error(err))
		}
	}
	return &summary
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
