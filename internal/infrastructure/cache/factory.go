package cache

import (
	"fmt"
	"io"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache is a report cache that owns resources
type Cache interface {
	appshared.ReportCache
	io.Closer
}

// ReportCacheFactory creates report caches based on configuration
type ReportCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(cfg config.RedisConfig, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed cache
func (f *ReportCacheFactory) CreateRedisCache() (*RedisReportCache, error) {
	c, err := NewRedisReportCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
		TTL:      f.redisConfig.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis report cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local cache. Invalidations are not
// shared between instances, so other instances may serve stale summaries
// until the TTL passes.
func (f *ReportCacheFactory) CreateInMemoryCache() *InMemoryReportCache {
	return NewInMemoryReportCache(f.redisConfig.CacheTTL)
}

// CreateCache tries Redis first and falls back to memory when allowed
func (f *ReportCacheFactory) CreateCache() (Cache, error) {
	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis report cache",
			zap.String("host", f.redisConfig.Host),
			zap.Duration("ttl", f.redisConfig.CacheTTL))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for report cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory report cache", zap.Error(err))
	return f.CreateInMemoryCache(), nil
}
