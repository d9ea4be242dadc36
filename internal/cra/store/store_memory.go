package store

import (
	"context"
	"sync"
	"time"

	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
)

type cachedSnapshot struct {
	snapshot models.Snapshot
	storedAt time.Time
}

// InMemoryCache provides an in-memory snapshot cache with TTL expiration
// checked at read time.
type InMemoryCache struct {
	mu        sync.RWMutex
	snapshots map[string]cachedSnapshot
	cacheTTL  time.Duration
	clock     func() time.Time
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// A non-positive TTL selects DefaultTTL.
func NewInMemoryCache(cacheTTL time.Duration, opts ...Option) *InMemoryCache {
	if cacheTTL <= 0 {
		cacheTTL = DefaultTTL
	}
	o := applyOptions(opts)
	return &InMemoryCache{
		snapshots: make(map[string]cachedSnapshot),
		cacheTTL:  cacheTTL,
		clock:     o.clock,
	}
}

// SaveSnapshot stores a copy of snapshot under key.
// If snapshot is nil, the operation is a no-op and returns nil.
func (c *InMemoryCache) SaveSnapshot(_ context.Context, key string, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[key] = cachedSnapshot{snapshot: *snapshot, storedAt: c.clock()}
	return nil
}

// FindSnapshot retrieves a cached snapshot by key.
// Returns sentinel.ErrNotFound if the entry does not exist or has expired past the cache TTL.
func (c *InMemoryCache) FindSnapshot(_ context.Context, key string) (*models.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.snapshots[key]; ok {
		if fresh(cached.storedAt, c.clock(), c.cacheTTL) {
			snap := cached.snapshot
			return &models.CacheEntry{Key: key, CachedAt: cached.storedAt, Snapshot: &snap}, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Purge drops expired entries. Reads never depend on it; it only bounds memory.
func (c *InMemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	removed := 0
	for key, cached := range c.snapshots {
		if !fresh(cached.storedAt, now, c.cacheTTL) {
			delete(c.snapshots, key)
			removed++
		}
	}
	return removed
}

// StartCleanup purges expired entries every interval until ctx is cancelled.
func (c *InMemoryCache) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports how many entries are held, fresh or not.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}
