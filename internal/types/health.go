package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates all tiers operating normally.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates partial functionality (e.g., durable store down).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates critical failure.
	HealthStatusUnhealthy
)

// String returns the string representation of health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthMetrics contains overall engine health information.
type HealthMetrics struct {
	Timestamp  time.Time
	Remote     RemoteHealthMetrics
	Volatile   VolatileHealthMetrics
	Persistent PersistentHealthMetrics
	Status     HealthStatus
}

// VolatileHealthMetrics contains in-process tier health details.
type VolatileHealthMetrics struct {
	Status        HealthStatus
	Available     bool
	EntryCount    int
	MaxEntries    int
	HitCount      int64
	MissCount     int64
	HitRatio      float64
	EvictionCount int64
}

// PersistentHealthMetrics contains durable tier health details.
type PersistentHealthMetrics struct {
	Status       HealthStatus
	Available    bool
	HitCount     int64
	MissCount    int64
	ExpiredCount int64
	WriteErrors  int64
}

// RemoteHealthMetrics contains remote service and background work details.
//
//nolint:govet // Metrics struct - logical grouping prioritized for readability
type RemoteHealthMetrics struct {
	CircuitBreakerState string
	PendingBackground   int
	DroppedBackground   int64
	Status              HealthStatus
	Enabled             bool
}

// MetricsSnapshot contains a point-in-time view of engine metrics.
//
//nolint:govet // Metrics struct with many counters - grouping by category improves readability
type MetricsSnapshot struct {
	Timestamp time.Time
	// Tier hit/miss counters
	VolatileHits     int64
	VolatileMisses   int64
	PersistentHits   int64
	PersistentMisses int64
	ServerCacheHits  int64
	ServerCacheMiss  int64

	// Outcome counters
	SourceFetches  int64
	SourceFailures int64
	QuotaDenials   int64
	FailOpens      int64
	Evictions      int64
	ErrorCount     int64

	// Latency metrics (milliseconds)
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	CircuitBreakerState string
}

// LocalHitRatio calculates the share of lookups answered by a local tier.
func (s *MetricsSnapshot) LocalHitRatio() float64 {
	hits := s.VolatileHits + s.PersistentHits
	total := hits + s.PersistentMisses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// TotalHitRatio calculates the share of lookups answered by any cache tier.
func (s *MetricsSnapshot) TotalHitRatio() float64 {
	hits := s.VolatileHits + s.PersistentHits + s.ServerCacheHits
	total := hits + s.ServerCacheMiss
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// PublisherHealthMetrics is the gauge set pushed to metrics backends on an interval.
type PublisherHealthMetrics struct {
	VolatileEntries     int64
	VolatileMaxEntries  int64
	PendingBackground   int64
	DroppedBackground   int64
	FailOpens           int64
	QuotaDenials        int64
	LocalHitRatio       float64
	TotalHitRatio       float64
	AverageLatencyMs    float64
	P95LatencyMs        float64
	PersistentAvailable bool
	CircuitOpen         bool
}
