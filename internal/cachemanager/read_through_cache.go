package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache wraps a CacheManager with a loader function, serving hits
// from the cache and falling back to the loader on a miss. The registry uses
// it for reference system lookups, where the loader is the repository query.
//
// I is the loader input, which may differ from the cache key: a lookup can be
// keyed by tag while the loader takes a richer query input.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache     CacheManager[K, V]
	load      func(ctx context.Context, input I) (V, error)
	skipCache bool
}

// NewReadThroughCache creates a read-through cache over the manager. With
// skipCache set every read goes straight to the loader, which keeps a single
// code path for configurations that disable caching.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	skipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, load: load, skipCache: skipCache}
}

// Get returns the cached value for key, loading and caching it on a miss.
// Loader errors are returned as-is and nothing is cached for them.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.load(ctx, input)
	}
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	return r.loadAndCache(ctx, key, input, ttl)
}

// GetWithRefresh behaves like Get but extends the entry's expiration on a
// hit, keeping hot registry entries resident.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.load(ctx, input)
	}
	if value, ok := r.cache.GetWithRefresh(ctx, key, ttl); ok {
		return value, nil
	}
	return r.loadAndCache(ctx, key, input, ttl)
}

func (r *ReadThroughCache[K, V, I]) loadAndCache(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	value, err := r.load(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}
