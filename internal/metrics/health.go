package metrics

import "github.com/LavishGent/subtitlecache/internal/types"

// Gauge is one named health reading.
type Gauge struct {
	Name  string
	Value float64
}

// HealthGauges flattens m into the gauges every publisher reports. Ratios are
// clamped to [0,1] and latencies to non-negative values. A nil m yields nil.
func HealthGauges(m *types.PublisherHealthMetrics) []Gauge {
	if m == nil {
		return nil
	}
	return []Gauge{
		{"volatile.entries", float64(m.VolatileEntries)},
		{"volatile.max_entries", float64(m.VolatileMaxEntries)},
		{"persistent.available", flag(m.PersistentAvailable)},
		{"remote.circuit_open", flag(m.CircuitOpen)},
		{"performance.local_hit_ratio", ratio(m.LocalHitRatio)},
		{"performance.total_hit_ratio", ratio(m.TotalHitRatio)},
		{"performance.average_latency_ms", nonNegative(m.AverageLatencyMs)},
		{"performance.p95_latency_ms", nonNegative(m.P95LatencyMs)},
		{"quota.fail_opens", float64(m.FailOpens)},
		{"quota.denials", float64(m.QuotaDenials)},
		{"background.pending", float64(m.PendingBackground)},
		{"background.dropped", float64(m.DroppedBackground)},
	}
}

// HealthFromSnapshot fills the counter-derived fields from a tracker snapshot.
// Tier sizes and availability are left for the caller.
func HealthFromSnapshot(snapshot types.MetricsSnapshot) *types.PublisherHealthMetrics {
	return &types.PublisherHealthMetrics{
		LocalHitRatio:    snapshot.LocalHitRatio(),
		TotalHitRatio:    snapshot.TotalHitRatio(),
		AverageLatencyMs: snapshot.AvgLatencyMs,
		P95LatencyMs:     snapshot.P95LatencyMs,
		FailOpens:        snapshot.FailOpens,
		QuotaDenials:     snapshot.QuotaDenials,
		CircuitOpen:      snapshot.CircuitBreakerState == "open",
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ratio(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
