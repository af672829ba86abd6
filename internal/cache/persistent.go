package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/kvstore"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// PersistentCache is the durable tier. Each row carries its write time and is
// treated as absent once it is Expiry old; the stale row is deleted by the
// read that notices it. Store failures degrade to misses.
type PersistentCache struct {
	store      types.KeyValueStore
	serializer types.Serializer
	expiry     time.Duration
	logger     *slog.Logger
	now        func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	expired     atomic.Int64
	puts        atomic.Int64
	writeErrors atomic.Int64

	closed atomic.Bool
}

// NewPersistentCache creates a durable tier over store.
func NewPersistentCache(store types.KeyValueStore, cfg config.PersistentConfig, serializer types.Serializer, logger *slog.Logger) *PersistentCache {
	if logger == nil {
		logger = slog.Default()
	}
	if serializer == nil {
		serializer = NewJSONSerializer()
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	return &PersistentCache{
		store:      store,
		serializer: serializer,
		expiry:     expiry,
		logger:     logger.With("component", "persistent-cache"),
		now:        time.Now,
	}
}

func (c *PersistentCache) Name() string {
	return "persistent"
}

// IsAvailable reports whether the backing store is open (or can be opened lazily).
func (c *PersistentCache) IsAvailable() bool {
	if c.closed.Load() {
		return false
	}
	switch s := c.store.(type) {
	case *kvstore.Lazy:
		return s.IsAvailable() || s.OpenFailures() == 0
	case interface{ IsAvailable() bool }:
		return s.IsAvailable()
	default:
		return true
	}
}

// Get returns the fresh entry for videoID together with its age.
func (c *PersistentCache) Get(ctx context.Context, videoID string) (*types.PersistentHit, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	raw, err := c.store.Get(ctx, kvstore.NamespaceSubtitles, videoID)
	if err != nil {
		if !errors.Is(err, types.ErrCacheMiss) {
			c.logger.Warn("Persistent read failed, treating as miss", "video_id", videoID, "error", err)
		}
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	var entry types.PersistentCacheEntry
	if err := c.serializer.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("Persistent entry unreadable, treating as miss", "video_id", videoID, "error", err)
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	age := c.now().Sub(entry.WrittenAt())
	if age < 0 {
		age = 0
	}
	if age >= c.expiry {
		c.expired.Add(1)
		c.misses.Add(1)
		if err := c.store.Delete(ctx, kvstore.NamespaceSubtitles, videoID); err != nil {
			c.logger.Warn("Failed to delete expired entry", "video_id", videoID, "error", err)
		} else {
			c.logger.Debug("Deleted expired entry", "video_id", videoID, "age", age)
		}
		return nil, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return &types.PersistentHit{Entry: entry, Age: age}, nil
}

// Put overwrites the row for videoID, stamping the current time.
// Failures are logged and counted; callers are free to ignore the error.
func (c *PersistentCache) Put(ctx context.Context, videoID string, payload *types.SubtitlePayload) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if payload == nil {
		return types.NewCacheError("Put", videoID, "persistent", types.ErrSerializationFailed)
	}

	data, err := c.serializer.Marshal(types.PersistentCacheEntry{
		VideoID:     videoID,
		Captions:    payload.Captions,
		CaptionData: payload.CaptionData,
		CachedAt:    c.now().UnixMilli(),
	})
	if err != nil {
		c.writeErrors.Add(1)
		return types.NewCacheError("Put", videoID, "persistent", errors.Join(types.ErrSerializationFailed, err))
	}

	if err := c.store.Put(ctx, kvstore.NamespaceSubtitles, videoID, data); err != nil {
		c.writeErrors.Add(1)
		c.logger.Warn("Persistent write dropped", "video_id", videoID, "error", err)
		return types.NewCacheError("Put", videoID, "persistent", err)
	}

	c.puts.Add(1)
	return nil
}

func (c *PersistentCache) Delete(ctx context.Context, videoID string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if err := c.store.Delete(ctx, kvstore.NamespaceSubtitles, videoID); err != nil {
		return types.NewCacheError("Delete", videoID, "persistent", err)
	}
	return nil
}

// Keys returns every stored video ID, expired or not.
func (c *PersistentCache) Keys(ctx context.Context) ([]string, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}
	return c.store.Keys(ctx, kvstore.NamespaceSubtitles)
}

// Close stops the tier. The backing store belongs to whoever opened it and
// is left open.
func (c *PersistentCache) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *PersistentCache) Stats() types.PersistentCacheStats {
	return types.PersistentCacheStats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Expired:     c.expired.Load(),
		Puts:        c.puts.Load(),
		WriteErrors: c.writeErrors.Load(),
	}
}

var _ types.PersistentLayer = (*PersistentCache)(nil)
