package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
)

const snapshotKeyPrefix = "cra:snapshot:"

// RedisCache shares cached snapshots across instances. Entries carry their
// own CachedAt so expiry is judged at read time like the in-memory cache;
// the Redis TTL only reclaims space.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
	clock    func() time.Time
}

// NewRedisCache constructs a Redis-backed snapshot cache.
func NewRedisCache(client *redis.Client, cacheTTL time.Duration, opts ...Option) *RedisCache {
	if cacheTTL <= 0 {
		cacheTTL = DefaultTTL
	}
	o := applyOptions(opts)
	return &RedisCache{client: client, cacheTTL: cacheTTL, clock: o.clock}
}

// SaveSnapshot writes the entry with SET ... EX ttl.
func (c *RedisCache) SaveSnapshot(ctx context.Context, key string, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(models.CacheEntry{Key: key, CachedAt: c.clock(), Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+key, payload, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// FindSnapshot returns sentinel.ErrNotFound on a miss or a stale entry.
func (c *RedisCache) FindSnapshot(ctx context.Context, key string) (*models.CacheEntry, error) {
	raw, err := c.client.Get(ctx, snapshotKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	if entry.Snapshot == nil || !fresh(entry.CachedAt, c.clock(), c.cacheTTL) {
		return nil, sentinel.ErrNotFound
	}
	return &entry, nil
}
