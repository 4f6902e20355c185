package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "backoffice:"
	scanBatchSize    = 200
)

// RedisReportCache implements ReportCache using Redis.
// This is suitable for deployments where several server instances
// need to see the same invalidations.
type RedisReportCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisReportCache connects and pings the server
func NewRedisReportCache(cfg RedisConfig) (*RedisReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisReportCacheWithClient(client, defaultKeyPrefix, cfg.TTL), nil
}

// NewRedisReportCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisReportCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisReportCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisReportCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get reads a cached value; a missing key is not an error
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value with the configured TTL
func (c *RedisReportCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes matching keys with SCAN so the server is never blocked by KEYS
func (c *RedisReportCache) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := c.keyPrefix + prefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping reports whether Redis is reachable, for readiness checks
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

var _ appshared.ReportCache = (*RedisReportCache)(nil)
