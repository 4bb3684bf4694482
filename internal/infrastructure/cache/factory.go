package cache

import (
	"fmt"

	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ViewCacheFactory creates view caches based on configuration
type ViewCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// ViewCacheFactoryOption is a functional option for configuring the factory
type ViewCacheFactoryOption func(*ViewCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) ViewCacheFactoryOption {
	return func(f *ViewCacheFactory) {
		f.logger = logger
	}
}

// NewViewCacheFactory creates a new factory
func NewViewCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ViewCacheFactoryOption) *ViewCacheFactory {
	f := &ViewCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed view cache with a near cache
func (f *ViewCacheFactory) CreateRedisCache() (*RedisViewCache, error) {
	c, err := NewRedisViewCache(
		f.redisConfig.Addr(),
		f.redisConfig.Password,
		f.redisConfig.DB,
		WithChannel(f.cacheConfig.Channel),
		WithTTL(f.cacheConfig.TTL),
		WithNearCache(f.cacheConfig.TTL),
		WithCacheLogger(f.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis view cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local view cache.
// WARNING: invalidations do not reach other instances.
func (f *ViewCacheFactory) CreateInMemoryCache() *InMemoryViewCache {
	return NewInMemoryViewCache(f.cacheConfig.TTL)
}

// CreateCache creates the configured cache. A Redis failure falls back to
// the in-memory cache when FallbackToMemory is set.
func (f *ViewCacheFactory) CreateCache() (shared.ViewCache, error) {
	if f.cacheConfig.Backend == BackendMemory {
		f.logger.Info("Using in-memory view cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis view cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.cacheConfig.FallbackToMemory {
		return nil, fmt.Errorf("Redis required for view cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory view cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
