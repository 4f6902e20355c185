package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/jonboulle/clockwork"
)

const defaultCleanupInterval = 5 * time.Minute

// entry represents a cached value with expiration
type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryReportCache implements ReportCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryReportCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	clock     clockwork.Clock
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures the in-memory cache
type InMemoryOption func(*InMemoryReportCache)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock clockwork.Clock) InMemoryOption {
	return func(c *InMemoryReportCache) {
		c.clock = clock
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(c *InMemoryReportCache) {
		c.interval = d
	}
}

// NewInMemoryReportCache creates a new in-memory cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryReportCache(ttl time.Duration, opts ...InMemoryOption) *InMemoryReportCache {
	c := &InMemoryReportCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		clock:    clockwork.NewRealClock(),
		interval: defaultCleanupInterval,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a copy of the cached value
func (c *InMemoryReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || !c.clock.Now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return bytes.Clone(e.value), true, nil
}

// Set stores a copy of value for the configured TTL
func (c *InMemoryReportCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     bytes.Clone(value),
		expiresAt: c.clock.Now().Add(c.ttl),
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *InMemoryReportCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (c *InMemoryReportCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryReportCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.Chan():
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryReportCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of stored entries, expired ones included
func (c *InMemoryReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ appshared.ReportCache = (*InMemoryReportCache)(nil)
