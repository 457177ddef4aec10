// Command queryd serves the product query API: cached product lookups,
// stock checks, color listings, and quantity pricing over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/application/query"
	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/cache"
	"github.com/printshop/catalog/internal/infrastructure/catalogstore"
	"github.com/printshop/catalog/internal/infrastructure/config"
	"github.com/printshop/catalog/internal/infrastructure/logger"
	"github.com/printshop/catalog/internal/infrastructure/ratelimit"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
	"github.com/printshop/catalog/internal/infrastructure/supplier/ascolour"
	"github.com/printshop/catalog/internal/infrastructure/supplier/sanmar"
	"github.com/printshop/catalog/internal/infrastructure/supplier/ssactivewear"
	"github.com/printshop/catalog/internal/interfaces/http/handler"
	"github.com/printshop/catalog/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
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

	log.Info("starting query service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	registry := buildRegistry(cfg, log)

	productCache := cache.New(cache.Options{
		RedisURL: cfg.Redis.URL(),
		TTLs: cache.TTLs{
			Catalog:   cfg.Cache.CatalogTTL,
			Pricing:   cfg.Cache.PricingTTL,
			Inventory: cfg.Cache.InventoryTTL,
		},
	}, log)

	var store query.CatalogStore
	if cfg.CatalogStore.Token != "" {
		client, err := catalogstore.NewClient(&catalogstore.Config{
			BaseURL:        cfg.CatalogStore.BaseURL,
			Token:          cfg.CatalogStore.Token,
			TimeoutSeconds: cfg.CatalogStore.TimeoutSeconds,
		})
		if err != nil {
			log.Fatal("failed to build catalog store client", zap.Error(err))
		}
		store = client
	} else {
		log.Info("catalog store disabled: no token configured")
	}

	service := query.New(registry, productCache, store, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidations(); err != nil {
		log.Fatal("failed to register binding validations", zap.Error(err))
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	r := router.New(engine, log, handler.NewSystemHandler(version))
	r.Register(handler.NewProductHandler(service, log))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// buildRegistry registers every supplier whose credentials are configured.
// Suppliers that fail to configure are skipped and their SKUs rejected as
// unknown, so a partial deployment still serves the remaining suppliers.
func buildRegistry(cfg *config.Config, log *zap.Logger) *supplier.Registry {
	registry := supplier.NewRegistry()

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

	if client, err := ascolour.NewClient(&ascolour.Config{
		BaseURL:         cfg.ASColour.BaseURL,
		SubscriptionKey: cfg.ASColour.SubscriptionKey,
		Email:           cfg.ASColour.Email,
		Password:        cfg.ASColour.Password,
		TimeoutSeconds:  cfg.ASColour.TimeoutSeconds,
	}, limiters.For(catalog.SupplierASColour), log); err != nil {
		log.Warn("ascolour client not configured", zap.Error(err))
	} else {
		registry.Register(supplier.Source{Client: client, Transformer: ascolour.NewTransformer()})
	}

	if client, err := ssactivewear.NewClient(&ssactivewear.Config{
		BaseURL:        cfg.SSActivewear.BaseURL,
		AccountNumber:  cfg.SSActivewear.AccountNumber,
		APIKey:         cfg.SSActivewear.APIKey,
		TimeoutSeconds: cfg.SSActivewear.TimeoutSeconds,
	}, limiters.For(catalog.SupplierSSActivewear), log); err != nil {
		log.Warn("ssactivewear client not configured", zap.Error(err))
	} else {
		registry.Register(supplier.Source{Client: client, Transformer: ssactivewear.NewTransformer()})
	}

	if client, err := sanmar.NewClient(&sanmar.Config{
		Host:           cfg.SanMar.Host,
		Port:           cfg.SanMar.Port,
		Username:       cfg.SanMar.Username,
		Password:       cfg.SanMar.Password,
		RemoteDir:      cfg.SanMar.RemoteDir,
		FileName:       cfg.SanMar.FileName,
		LocalDir:       cfg.SanMar.LocalDir,
		TimeoutSeconds: cfg.SanMar.TimeoutSeconds,
	}, log); err != nil {
		log.Warn("sanmar client not configured", zap.Error(err))
	} else {
		registry.Register(supplier.Source{Client: client, Transformer: sanmar.NewTransformer()})
	}

	codes := registry.Codes()
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = string(c)
	}
	log.Info("suppliers registered", zap.Strings("suppliers", names))

	return registry
}
