package cache

import (
	"context"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// DisabledVolatileCache is a no-op volatile tier.
type DisabledVolatileCache struct{}

// NewDisabledVolatileCache creates a new disabled volatile tier.
func NewDisabledVolatileCache() *DisabledVolatileCache {
	return &DisabledVolatileCache{}
}

func (c *DisabledVolatileCache) Name() string { return "volatile-disabled" }

func (c *DisabledVolatileCache) IsAvailable() bool { return false }

func (c *DisabledVolatileCache) Close() error { return nil }

func (c *DisabledVolatileCache) Len() int { return 0 }

func (c *DisabledVolatileCache) Stats() types.VolatileCacheStats { return types.VolatileCacheStats{} }

func (c *DisabledVolatileCache) Clear(ctx context.Context) error { return nil }

// Get returns ErrCacheMiss as this tier is disabled.
func (c *DisabledVolatileCache) Get(ctx context.Context, videoID string) (*types.VolatileCacheEntry, error) {
	return nil, types.ErrCacheMiss
}

func (c *DisabledVolatileCache) Put(ctx context.Context, videoID string, payload *types.SubtitlePayload) error {
	return nil
}

func (c *DisabledVolatileCache) Delete(ctx context.Context, videoID string) error {
	return nil
}

// DisabledPersistentCache is a no-op durable tier.
type DisabledPersistentCache struct{}

// NewDisabledPersistentCache creates a new disabled durable tier.
func NewDisabledPersistentCache() *DisabledPersistentCache {
	return &DisabledPersistentCache{}
}

func (c *DisabledPersistentCache) Name() string { return "persistent-disabled" }

func (c *DisabledPersistentCache) IsAvailable() bool { return false }

func (c *DisabledPersistentCache) Close() error { return nil }

func (c *DisabledPersistentCache) Stats() types.PersistentCacheStats {
	return types.PersistentCacheStats{}
}

// Get returns ErrCacheMiss as this tier is disabled.
func (c *DisabledPersistentCache) Get(ctx context.Context, videoID string) (*types.PersistentHit, error) {
	return nil, types.ErrCacheMiss
}

func (c *DisabledPersistentCache) Put(ctx context.Context, videoID string, payload *types.SubtitlePayload) error {
	return nil
}

func (c *DisabledPersistentCache) Delete(ctx context.Context, videoID string) error {
	return nil
}

var (
	_ types.VolatileLayer   = (*DisabledVolatileCache)(nil)
	_ types.PersistentLayer = (*DisabledPersistentCache)(nil)
)
