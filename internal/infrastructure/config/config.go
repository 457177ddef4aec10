package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Log          LogConfig
	Redis        RedisConfig
	CatalogStore CatalogStoreConfig
	AppendStore  AppendStoreConfig
	Cache        CacheConfig
	Sync         SyncConfig
	HTTP         HTTPConfig
	ASColour     ASColourConfig
	SSActivewear SSActivewearConfig
	SanMar       SanMarConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RedisConfig holds Redis connection settings for the shared cache.
// Redis is optional; when Enabled is false the in-process cache is used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CatalogStoreConfig holds the curated catalog store connection settings
type CatalogStoreConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// AppendStoreConfig holds the raw-snapshot append store settings
type AppendStoreConfig struct {
	Dir string
}

// CacheConfig holds TTL overrides per cache class
type CacheConfig struct {
	CatalogTTL   time.Duration
	PricingTTL   time.Duration
	InventoryTTL time.Duration
}

// SyncConfig holds sync run tuning
type SyncConfig struct {
	PageSize   int
	MaxPages   int
	ChunkSize  int
	ChunkDelay time.Duration
	OutputDir  string
}

// HTTPConfig holds HTTP server configuration for the query service
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// RateLimitConfig holds a supplier request budget
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ASColourConfig holds AS Colour API credentials and tuning
type ASColourConfig struct {
	BaseURL         string
	SubscriptionKey string
	Email           string
	Password        string
	TimeoutSeconds  int
	RateLimit       RateLimitConfig
}

// SSActivewearConfig holds S&S Activewear API credentials and tuning
type SSActivewearConfig struct {
	BaseURL        string
	AccountNumber  string
	APIKey         string
	TimeoutSeconds int
	RateLimit      RateLimitConfig
}

// SanMarConfig holds SanMar SFTP feed settings
type SanMarConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	RemoteDir      string
	FileName       string
	LocalDir       string
	TimeoutSeconds int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CATALOG_ prefix (e.g., CATALOG_SANMAR_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/catalog")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CatalogStore: CatalogStoreConfig{
			BaseURL:        v.GetString("catalog_store.base_url"),
			Token:          v.GetString("catalog_store.token"),
			TimeoutSeconds: v.GetInt("catalog_store.timeout_seconds"),
		},
		AppendStore: AppendStoreConfig{
			Dir: v.GetString("append_store.dir"),
		},
		Cache: CacheConfig{
			CatalogTTL:   v.GetDuration("cache.catalog_ttl"),
			PricingTTL:   v.GetDuration("cache.pricing_ttl"),
			InventoryTTL: v.GetDuration("cache.inventory_ttl"),
		},
		Sync: SyncConfig{
			PageSize:   v.GetInt("sync.page_size"),
			MaxPages:   v.GetInt("sync.max_pages"),
			ChunkSize:  v.GetInt("sync.chunk_size"),
			ChunkDelay: v.GetDuration("sync.chunk_delay"),
			OutputDir:  v.GetString("sync.output_dir"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		ASColour: ASColourConfig{
			BaseURL:         v.GetString("ascolour.base_url"),
			SubscriptionKey: v.GetString("ascolour.subscription_key"),
			Email:           v.GetString("ascolour.email"),
			Password:        v.GetString("ascolour.password"),
			TimeoutSeconds:  v.GetInt("ascolour.timeout_seconds"),
			RateLimit: RateLimitConfig{
				Requests: v.GetInt("ascolour.rate_limit_requests"),
				Window:   v.GetDuration("ascolour.rate_limit_window"),
			},
		},
		SSActivewear: SSActivewearConfig{
			BaseURL:        v.GetString("ssactivewear.base_url"),
			AccountNumber:  v.GetString("ssactivewear.account_number"),
			APIKey:         v.GetString("ssactivewear.api_key"),
			TimeoutSeconds: v.GetInt("ssactivewear.timeout_seconds"),
			RateLimit: RateLimitConfig{
				Requests: v.GetInt("ssactivewear.rate_limit_requests"),
				Window:   v.GetDuration("ssactivewear.rate_limit_window"),
			},
		},
		SanMar: SanMarConfig{
			Host:           v.GetString("sanmar.host"),
			Port:           v.GetInt("sanmar.port"),
			Username:       v.GetString("sanmar.username"),
			Password:       v.GetString("sanmar.password"),
			RemoteDir:      v.GetString("sanmar.remote_dir"),
			FileName:       v.GetString("sanmar.file_name"),
			LocalDir:       v.GetString("sanmar.local_dir"),
			TimeoutSeconds: v.GetInt("sanmar.timeout_seconds"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "catalog"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.CatalogStore.BaseURL == "" {
		cfg.CatalogStore.BaseURL = "http://localhost:1337"
	}
	if cfg.CatalogStore.TimeoutSeconds == 0 {
		cfg.CatalogStore.TimeoutSeconds = 30
	}
	if cfg.AppendStore.Dir == "" {
		cfg.AppendStore.Dir = "data/snapshots"
	}
	if cfg.Cache.CatalogTTL == 0 {
		cfg.Cache.CatalogTTL = 24 * time.Hour
	}
	if cfg.Cache.PricingTTL == 0 {
		cfg.Cache.PricingTTL = time.Hour
	}
	if cfg.Cache.InventoryTTL == 0 {
		cfg.Cache.InventoryTTL = 15 * time.Minute
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.MaxPages == 0 {
		cfg.Sync.MaxPages = 500
	}
	if cfg.Sync.ChunkSize == 0 {
		cfg.Sync.ChunkSize = 10
	}
	if cfg.Sync.ChunkDelay == 0 {
		cfg.Sync.ChunkDelay = time.Second
	}
	if cfg.Sync.OutputDir == "" {
		cfg.Sync.OutputDir = "data/sessions"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.ASColour.BaseURL == "" {
		cfg.ASColour.BaseURL = "https://api.ascolour.com"
	}
	if cfg.ASColour.TimeoutSeconds == 0 {
		cfg.ASColour.TimeoutSeconds = 30
	}
	// Conservative budget; the published limit is higher but sustained
	// bursts trip the gateway well before it.
	if cfg.ASColour.RateLimit.Requests == 0 {
		cfg.ASColour.RateLimit.Requests = 10
	}
	if cfg.ASColour.RateLimit.Window == 0 {
		cfg.ASColour.RateLimit.Window = time.Second
	}
	if cfg.SSActivewear.BaseURL == "" {
		cfg.SSActivewear.BaseURL = "https://api.ssactivewear.com"
	}
	if cfg.SSActivewear.TimeoutSeconds == 0 {
		cfg.SSActivewear.TimeoutSeconds = 30
	}
	if cfg.SSActivewear.RateLimit.Requests == 0 {
		cfg.SSActivewear.RateLimit.Requests = 10
	}
	if cfg.SSActivewear.RateLimit.Window == 0 {
		cfg.SSActivewear.RateLimit.Window = time.Second
	}
	if cfg.SanMar.Host == "" {
		cfg.SanMar.Host = "ftp.sanmar.com"
	}
	if cfg.SanMar.Port == 0 {
		cfg.SanMar.Port = 22
	}
	if cfg.SanMar.RemoteDir == "" {
		cfg.SanMar.RemoteDir = "/SanMarPDD"
	}
	if cfg.SanMar.FileName == "" {
		cfg.SanMar.FileName = "EPDD.csv"
	}
	if cfg.SanMar.LocalDir == "" {
		cfg.SanMar.LocalDir = "data/feeds"
	}
	if cfg.SanMar.TimeoutSeconds == 0 {
		cfg.SanMar.TimeoutSeconds = 120
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive")
	}
	if c.Sync.MaxPages <= 0 {
		return fmt.Errorf("sync.max_pages must be positive")
	}
	if c.Sync.ChunkSize <= 0 {
		return fmt.Errorf("sync.chunk_size must be positive")
	}
	if c.ASColour.RateLimit.Requests <= 0 || c.ASColour.RateLimit.Window <= 0 {
		return fmt.Errorf("ascolour rate limit must be positive")
	}
	if c.SSActivewear.RateLimit.Requests <= 0 || c.SSActivewear.RateLimit.Window <= 0 {
		return fmt.Errorf("ssactivewear rate limit must be positive")
	}
	if c.Cache.InventoryTTL > c.Cache.PricingTTL || c.Cache.PricingTTL > c.Cache.CatalogTTL {
		return fmt.Errorf("cache TTLs must be ordered inventory <= pricing <= catalog")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.CatalogStore.Token == "" {
			return fmt.Errorf("catalog_store.token is required in production")
		}
		if strings.HasPrefix(c.CatalogStore.BaseURL, "http://localhost") {
			return fmt.Errorf("catalog_store.base_url must point at a real store in production")
		}
	}

	return nil
}

// RedisAddr returns the host:port address for the Redis client
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// URL returns the redis:// connection URL, or "" when Redis is disabled.
func (r *RedisConfig) URL() string {
	if !r.Enabled {
		return ""
	}
	u := url.URL{
		Scheme: "redis",
		Host:   r.RedisAddr(),
		Path:   fmt.Sprintf("/%d", r.DB),
	}
	if r.Password != "" {
		u.User = url.UserPassword("", r.Password)
	}
	return u.String()
}
