package cache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// noExpiry keeps bigcache from ever treating an entry as stale.
const noExpiry = 100 * 365 * 24 * time.Hour

// VolatileCache is the in-process tier. It holds at most MaxEntries videos and
// evicts in insertion order; overwriting a video keeps its original position.
// Entries are stored serialized, so callers never share memory with the cache.
type VolatileCache struct {
	cache      *bigcache.BigCache
	config     config.VolatileConfig
	serializer types.Serializer
	logger     *slog.Logger
	now        func() time.Time
	onEvict    func(videoID string)

	mu    sync.Mutex
	order []string

	hits      atomic.Int64
	misses    atomic.Int64
	puts      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

// NewVolatileCache creates a volatile tier with the given configuration.
func NewVolatileCache(cfg config.VolatileConfig, serializer types.Serializer, logger *slog.Logger) (*VolatileCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if serializer == nil {
		serializer = NewJSONSerializer()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 3
	}

	vc := &VolatileCache{
		config:     cfg,
		serializer: serializer,
		logger:     logger.With("component", "volatile-cache"),
		now:        time.Now,
		order:      make([]string, 0, cfg.MaxEntries+1),
	}

	bcConfig := bigcache.Config{
		Shards:             4,
		LifeWindow:         noExpiry,
		CleanWindow:        0,
		MaxEntriesInWindow: cfg.MaxEntries * 4,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.HardMaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: vc.logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			// Runs under a shard lock inside Set; must not touch vc.mu.
			if reason == bigcache.NoSpace {
				vc.evictions.Add(1)
			}
		},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	vc.cache = bc
	return vc, nil
}

// OnEvict registers a callback invoked after a video is evicted by the bound.
func (c *VolatileCache) OnEvict(fn func(videoID string)) {
	c.onEvict = fn
}

func (c *VolatileCache) Name() string {
	return "volatile"
}

func (c *VolatileCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get returns a fresh copy of the entry for videoID.
func (c *VolatileCache) Get(ctx context.Context, videoID string) (*types.VolatileCacheEntry, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.cache.Get(videoID)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			// bigcache may have dropped it for space.
			c.forget(videoID)
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		return nil, types.NewCacheError("Get", videoID, "volatile", err)
	}

	var entry types.VolatileCacheEntry
	if err := c.serializer.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("Dropping undecodable entry", "video_id", videoID, "error", err)
		_ = c.cache.Delete(videoID)
		c.forget(videoID)
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return &entry, nil
}

// Put stores a copy of payload and enforces the entry bound.
func (c *VolatileCache) Put(ctx context.Context, videoID string, payload *types.SubtitlePayload) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if payload == nil {
		return types.NewCacheError("Put", videoID, "volatile", types.ErrSerializationFailed)
	}

	data, err := c.serializer.Marshal(types.VolatileCacheEntry{
		VideoID:   videoID,
		Payload:   *payload,
		WrittenAt: c.now(),
	})
	if err != nil {
		return types.NewCacheError("Put", videoID, "volatile", errors.Join(types.ErrSerializationFailed, err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cache.Set(videoID, data); err != nil {
		return types.NewCacheError("Put", videoID, "volatile", err)
	}
	if !slices.Contains(c.order, videoID) {
		c.order = append(c.order, videoID)
	}
	c.puts.Add(1)

	for len(c.order) > c.config.MaxEntries {
		oldest := c.order[0]
		c.order = slices.Delete(c.order, 0, 1)
		if err := c.cache.Delete(oldest); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			c.logger.Warn("Eviction delete failed", "video_id", oldest, "error", err)
		}
		c.evictions.Add(1)
		c.logger.Debug("Evicted oldest entry", "video_id", oldest, "size", len(c.order))
		if c.onEvict != nil {
			c.onEvict(oldest)
		}
	}

	return nil
}

func (c *VolatileCache) Delete(ctx context.Context, videoID string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cache.Delete(videoID); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return types.NewCacheError("Delete", videoID, "volatile", err)
	}
	c.forget(videoID)
	c.deletes.Add(1)
	return nil
}

// Clear removes every entry.
func (c *VolatileCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cache.Reset(); err != nil {
		return types.NewCacheError("Clear", "", "volatile", err)
	}
	c.order = c.order[:0]
	return nil
}

// Keys returns the cached video IDs, oldest insertion first.
func (c *VolatileCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

func (c *VolatileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// MaxEntries returns the configured bound.
func (c *VolatileCache) MaxEntries() int {
	return c.config.MaxEntries
}

func (c *VolatileCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cache.Close()
}

func (c *VolatileCache) Stats() types.VolatileCacheStats {
	return types.VolatileCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Puts:      c.puts.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// HitRatio returns the cache hit ratio.
func (c *VolatileCache) HitRatio() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// forget drops videoID from the insertion order. Callers hold c.mu.
func (c *VolatileCache) forget(videoID string) {
	if i := slices.Index(c.order, videoID); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: "+format, args...)
}

var _ types.VolatileLayer = (*VolatileCache)(nil)
