package cache

import (
	"go.uber.org/zap"
)

// Options selects and configures the cache backend.
type Options struct {
	// RedisURL selects the Redis backend when non-empty
	// (e.g. "redis://localhost:6379/0").
	RedisURL string
	TTLs     TTLs
}

// New builds the configured ProductCache. With no Redis URL the in-process
// cache is used; a failed Redis connection also degrades to in-process with a
// warning, because the cache is best-effort by contract.
func New(opts Options, log *zap.Logger) ProductCache {
	if opts.RedisURL == "" {
		log.Info("cache: no redis url configured, using in-memory cache")
		return NewMemoryProductCache(opts.TTLs)
	}
	redisCache, err := NewRedisProductCache(opts.RedisURL, opts.TTLs)
	if err != nil {
		log.Warn("cache: redis unavailable, degrading to in-memory cache", zap.Error(err))
		return NewMemoryProductCache(opts.TTLs)
	}
	log.Info("cache: connected to redis")
	return redisCache
}
