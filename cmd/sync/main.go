// Command sync runs one catalog sync against a supplier: it pulls the
// supplier's product listing, normalizes every record into the canonical
// schema, and persists the results to the cache, the append log, and the
// curated catalog store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	syncapp "github.com/printshop/catalog/internal/application/sync"
	"github.com/printshop/catalog/internal/domain/catalog"
	domainsync "github.com/printshop/catalog/internal/domain/sync"
	"github.com/printshop/catalog/internal/infrastructure/appendstore"
	"github.com/printshop/catalog/internal/infrastructure/cache"
	"github.com/printshop/catalog/internal/infrastructure/catalogstore"
	"github.com/printshop/catalog/internal/infrastructure/config"
	"github.com/printshop/catalog/internal/infrastructure/logger"
	"github.com/printshop/catalog/internal/infrastructure/ratelimit"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
	"github.com/printshop/catalog/internal/infrastructure/supplier/ascolour"
	"github.com/printshop/catalog/internal/infrastructure/supplier/sanmar"
	"github.com/printshop/catalog/internal/infrastructure/supplier/ssactivewear"
)

type flags struct {
	supplier       string
	dryRun         bool
	limit          int
	category       string
	brand          string
	since          string
	updatedSince   string
	incremental    bool
	enrichVariants bool
	enrichPrices   bool
	pageSize       int
	outputDir      string

	// SanMar feed overrides.
	fileType   string
	localFile  string
	noDownload bool
}

func parseFlags() *flags {
	f := &flags{}
	pflag.StringVar(&f.supplier, "supplier", "", "supplier to sync (ascolour, ssactivewear, sanmar)")
	pflag.BoolVar(&f.dryRun, "dry-run", false, "transform and validate without persisting")
	pflag.IntVar(&f.limit, "limit", 0, "stop after this many records (0 = all)")
	pflag.StringVar(&f.category, "category", "", "restrict the listing to one category")
	pflag.StringVar(&f.brand, "brand", "", "restrict the listing to one brand")
	pflag.StringVar(&f.since, "since", "", "only records updated after this time (RFC3339 or YYYY-MM-DD)")
	pflag.StringVar(&f.updatedSince, "updated-since", "", "alias for --since")
	pflag.BoolVar(&f.incremental, "incremental", false, "sync only records updated since the last successful run")
	pflag.BoolVar(&f.enrichVariants, "enrich-variants", true, "fetch per-product variant and inventory detail")
	pflag.BoolVar(&f.enrichPrices, "enrich-prices", false, "fetch per-product pricing detail")
	pflag.IntVar(&f.pageSize, "page-size", 0, "listing page size (0 = configured default)")
	pflag.StringVar(&f.outputDir, "output-dir", "", "session artifact directory (overrides config)")
	pflag.StringVar(&f.fileType, "file-type", "", "sanmar: feed type to process (epdd, pdd, or a file name)")
	pflag.StringVar(&f.localFile, "local-file", "", "sanmar: parse this local feed file instead of downloading")
	pflag.BoolVar(&f.noDownload, "no-download", false, "sanmar: reuse the last downloaded feed file")
	pflag.Parse()
	return f
}

// sinceValue folds --updated-since into --since. Both set to different
// values is an operator mistake, not a precedence question.
func (f *flags) sinceValue() (string, error) {
	if f.since != "" && f.updatedSince != "" && f.since != f.updatedSince {
		return "", fmt.Errorf("--since %q and --updated-since %q conflict", f.since, f.updatedSince)
	}
	if f.since != "" {
		return f.since, nil
	}
	return f.updatedSince, nil
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// lastSuccessfulSync scans the session artifact directories for the most
// recent non-dry-run summary with zero failures for the supplier.
func lastSuccessfulSync(root string, code catalog.SupplierCode) (time.Time, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading session artifacts in %s: %w", root, err)
	}

	var latest time.Time
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), string(code)+"-") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name(), "summary.json"))
		if err != nil {
			continue
		}
		var summary domainsync.Summary
		if err := json.Unmarshal(data, &summary); err != nil {
			continue
		}
		if summary.Supplier != code || summary.DryRun || summary.Failed > 0 {
			continue
		}
		if summary.StartedAt.After(latest) {
			latest = summary.StartedAt
		}
	}

	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("no successful %s session under %s", code, root)
	}
	return latest, nil
}

// feedFileName maps a --file-type value onto a SanMar feed file name. A bare
// type such as "epdd" selects "EPDD.csv"; a value with an extension is used
// verbatim.
func feedFileName(fileType string) string {
	if fileType == "" || strings.Contains(fileType, ".") {
		return fileType
	}
	return strings.ToUpper(fileType) + ".csv"
}

func main() {
	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	code, ok := catalog.ParseSupplier(f.supplier)
	if !ok {
		log.Error("unknown supplier",
			zap.String("supplier", f.supplier),
			zap.String("want", supplierList()),
		)
		os.Exit(2)
	}

	sinceRaw, err := f.sinceValue()
	if err != nil {
		log.Error("invalid flag", zap.Error(err))
		os.Exit(2)
	}
	since, err := parseSince(sinceRaw)
	if err != nil {
		log.Error("invalid flag", zap.Error(err))
		os.Exit(2)
	}

	outputDir := cfg.Sync.OutputDir
	if f.outputDir != "" {
		outputDir = f.outputDir
	}

	if f.incremental && since.IsZero() {
		since, err = lastSuccessfulSync(outputDir, code)
		if err != nil {
			log.Error("incremental sync needs a previous successful run or an explicit --since",
				zap.Error(err))
			os.Exit(2)
		}
		log.Info("incremental sync", zap.Time("since", since))
	}

	source, err := buildSource(code, cfg, f, log)
	if err != nil {
		log.Error("failed to build supplier client", zap.Error(err))
		os.Exit(1)
	}
	registry := supplier.NewRegistry()
	registry.Register(source)

	productCache := cache.New(cache.Options{
		RedisURL: cfg.Redis.URL(),
		TTLs: cache.TTLs{
			Catalog:   cfg.Cache.CatalogTTL,
			Pricing:   cfg.Cache.PricingTTL,
			Inventory: cfg.Cache.InventoryTTL,
		},
	}, log)

	appends := appendstore.New(cfg.AppendStore.Dir)

	var store syncapp.CatalogStore
	if cfg.CatalogStore.Token != "" {
		client, err := catalogstore.NewClient(&catalogstore.Config{
			BaseURL:        cfg.CatalogStore.BaseURL,
			Token:          cfg.CatalogStore.Token,
			TimeoutSeconds: cfg.CatalogStore.TimeoutSeconds,
		})
		if err != nil {
			log.Error("failed to build catalog store client", zap.Error(err))
			os.Exit(1)
		}
		store = client
	} else {
		log.Info("catalog store disabled: no token configured")
	}

	pageSize := cfg.Sync.PageSize
	if f.pageSize > 0 {
		pageSize = f.pageSize
	}

	orchestrator := syncapp.New(registry, productCache, appends, store, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := orchestrator.Run(ctx, syncapp.Options{
		Supplier:       code,
		DryRun:         f.dryRun,
		Limit:          f.limit,
		Category:       f.category,
		Brand:          f.brand,
		Since:          since,
		EnrichVariants: f.enrichVariants,
		EnrichPrices:   f.enrichPrices,
		PageSize:       pageSize,
		MaxPages:       cfg.Sync.MaxPages,
		ChunkSize:      cfg.Sync.ChunkSize,
		ChunkDelay:     cfg.Sync.ChunkDelay,
		OutputDir:      outputDir,
	})
	if err != nil {
		log.Error("sync failed", zap.Error(err))
		os.Exit(1)
	}

	if summary.Failed > 0 {
		os.Exit(3)
	}
}

// buildSource constructs the client and transformer for one supplier. Only
// the requested supplier is built so a sync run does not require every
// supplier's credentials.
func buildSource(code catalog.SupplierCode, cfg *config.Config, f *flags, log *zap.Logger) (supplier.Source, error) {
	limiters := ratelimit.NewRegistry(map[catalog.SupplierCode]ratelimit.Budget{
		catalog.SupplierASColour: {
			Requests: cfg.ASColour.RateLimit.Requests,
			Window:   cfg.ASColour.RateLimit.Window,
		},
		catalog.SupplierSSActivewear: {
			Requests: cfg.SSActivewear.RateLimit.Requests,
			Window:   cfg.SSActivewear.RateLimit.Window,
		},
	}, nil)

	switch code {
	case catalog.SupplierASColour:
		client, err := ascolour.NewClient(&ascolour.Config{
			BaseURL:         cfg.ASColour.BaseURL,
			SubscriptionKey: cfg.ASColour.SubscriptionKey,
			Email:           cfg.ASColour.Email,
			Password:        cfg.ASColour.Password,
			TimeoutSeconds:  cfg.ASColour.TimeoutSeconds,
		}, limiters.For(code), log)
		if err != nil {
			return supplier.Source{}, err
		}
		return supplier.Source{Client: client, Transformer: ascolour.NewTransformer()}, nil

	case catalog.SupplierSSActivewear:
		client, err := ssactivewear.NewClient(&ssactivewear.Config{
			BaseURL:        cfg.SSActivewear.BaseURL,
			AccountNumber:  cfg.SSActivewear.AccountNumber,
			APIKey:         cfg.SSActivewear.APIKey,
			TimeoutSeconds: cfg.SSActivewear.TimeoutSeconds,
		}, limiters.For(code), log)
		if err != nil {
			return supplier.Source{}, err
		}
		return supplier.Source{Client: client, Transformer: ssactivewear.NewTransformer()}, nil

	case catalog.SupplierSanMar:
		fileName := cfg.SanMar.FileName
		if name := feedFileName(f.fileType); name != "" {
			fileName = name
		}
		client, err := sanmar.NewClient(&sanmar.Config{
			Host:           cfg.SanMar.Host,
			Port:           cfg.SanMar.Port,
			Username:       cfg.SanMar.Username,
			Password:       cfg.SanMar.Password,
			RemoteDir:      cfg.SanMar.RemoteDir,
			FileName:       fileName,
			LocalDir:       cfg.SanMar.LocalDir,
			LocalFile:      f.localFile,
			NoDownload:     f.noDownload,
			TimeoutSeconds: cfg.SanMar.TimeoutSeconds,
		}, log)
		if err != nil {
			return supplier.Source{}, err
		}
		return supplier.Source{Client: client, Transformer: sanmar.NewTransformer()}, nil
	}
	return supplier.Source{}, fmt.Errorf("%w: %q", catalog.ErrUnknownSupplier, code)
}

func supplierList() string {
	codes := catalog.AllSuppliers()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
