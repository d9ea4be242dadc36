// Package store caches resolved snapshots keyed by normalized address.
// Caching is advisory: a miss, an expired entry and a backend failure all
// lead the caller to resolve from the sources again.
package store

import (
	"context"
	"time"

	"eligibility/internal/cra/models"
)

// DefaultTTL is how long a cached snapshot stays fresh.
const DefaultTTL = time.Hour

// Cache is the snapshot cache port.
type Cache interface {
	// FindSnapshot returns the live entry for key, or sentinel.ErrNotFound
	// when it is missing or older than the TTL.
	FindSnapshot(ctx context.Context, key string) (*models.CacheEntry, error)
	// SaveSnapshot overwrites the entry for key.
	SaveSnapshot(ctx context.Context, key string, snapshot *models.Snapshot) error
}

// Option configures a cache implementation.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides time.Now, letting tests move past the TTL without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func fresh(cachedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(cachedAt) < ttl
}
