package types

import (
	"context"
	"time"
)

type CacheInfo interface {
	Name() string
	IsAvailable() bool
}

type CacheCloser interface {
	Close() error
}

type VolatileLayer interface {
	CacheInfo
	CacheCloser
	Get(ctx context.Context, videoID string) (*VolatileCacheEntry, error)
	Put(ctx context.Context, videoID string, payload *SubtitlePayload) error
	Delete(ctx context.Context, videoID string) error
	Clear(ctx context.Context) error
	Len() int
	Stats() VolatileCacheStats
}

type PersistentLayer interface {
	CacheInfo
	CacheCloser
	Get(ctx context.Context, videoID string) (*PersistentHit, error)
	Put(ctx context.Context, videoID string, payload *SubtitlePayload) error
	Delete(ctx context.Context, videoID string) error
	Stats() PersistentCacheStats
}

// KeyValueStore is a durable store of opaque values grouped by namespace.
// Get returns ErrCacheMiss for absent keys.
type KeyValueStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Keys(ctx context.Context, namespace string) ([]string, error)
	Close() error
}

// RemoteCache is the shared server-side cache and quota service.
type RemoteCache interface {
	CheckCacheAndLimits(ctx context.Context, videoID, language string) QuotaDecision
	StoreInServerCache(ctx context.Context, videoID, title, channel string, payload *SubtitlePayload) error
	LogFetch(ctx context.Context, entry FetchLog) error
}

// SubtitleSource produces a fresh payload from the user's selected provider.
type SubtitleSource interface {
	Fetch(ctx context.Context, videoID string) (*SubtitlePayload, error)
}

type PreferenceReader interface {
	Preference(ctx context.Context) (SourcePreference, error)
}

type TokenProvider interface {
	AuthToken(ctx context.Context) (SecretString, error)
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

type MetricsRecorder interface {
	RecordHit(tier string, latency time.Duration)
	RecordMiss(tier string, latency time.Duration)
	RecordFetch(source string, success bool, latency time.Duration)
	RecordQuotaDenied(reason string)
	RecordFailOpen(reason string)
	RecordEviction(tier string)
	RecordError(layer string, operation string, err error)
	RecordCircuitBreakerStateChange(from, to string)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Publisher sends metrics to an external backend.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}
