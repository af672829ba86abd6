// Package metrics provides subtitle lookup metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Tier names used in metric calls.
const (
	TierVolatile   = "volatile"
	TierPersistent = "persistent"
	TierServer     = "server"
)

type Tracker struct {
	volatileHits     atomic.Int64
	volatileMisses   atomic.Int64
	persistentHits   atomic.Int64
	persistentMisses atomic.Int64
	serverHits       atomic.Int64
	serverMisses     atomic.Int64

	sourceFetches  atomic.Int64
	sourceFailures atomic.Int64
	quotaDenials   atomic.Int64
	failOpens      atomic.Int64
	evictions      atomic.Int64

	errorCount atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	cbStateChanges atomic.Int64
	cbState        atomic.Value
}

func NewTracker() *Tracker {
	t := &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
	t.cbState.Store("closed")
	return t
}

func (t *Tracker) RecordHit(tier string, latency time.Duration) {
	switch tier {
	case TierVolatile:
		t.volatileHits.Add(1)
	case TierPersistent:
		t.persistentHits.Add(1)
	case TierServer:
		t.serverHits.Add(1)
	}
	t.recordLatency(latency)
}

func (t *Tracker) RecordMiss(tier string, latency time.Duration) {
	switch tier {
	case TierVolatile:
		t.volatileMisses.Add(1)
	case TierPersistent:
		t.persistentMisses.Add(1)
	case TierServer:
		t.serverMisses.Add(1)
	}
}

// RecordFetch records one source fetch and its end-to-end latency.
func (t *Tracker) RecordFetch(source string, success bool, latency time.Duration) {
	t.sourceFetches.Add(1)
	if !success {
		t.sourceFailures.Add(1)
	}
	t.recordLatency(latency)
}

func (t *Tracker) RecordQuotaDenied(reason string) {
	t.quotaDenials.Add(1)
}

func (t *Tracker) RecordFailOpen(reason string) {
	t.failOpens.Add(1)
}

func (t *Tracker) RecordEviction(tier string) {
	t.evictions.Add(1)
}

// RecordError records an error.
func (t *Tracker) RecordError(layer string, operation string, err error) {
	t.errorCount.Add(1)
}

// RecordCircuitBreakerStateChange records circuit breaker state transitions.
func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	t.cbStateChanges.Add(1)
	t.cbState.Store(to)
}

// CircuitBreakerStateChanges returns how many transitions have been seen.
func (t *Tracker) CircuitBreakerStateChanges() int64 {
	return t.cbStateChanges.Load()
}

// recordLatency adds a latency measurement to the ring buffer.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns current metrics snapshot.
func (t *Tracker) Snapshot() types.MetricsSnapshot {
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			// Full buffer: oldest sample sits at latencyIndex.
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := types.MetricsSnapshot{
		Timestamp:        time.Now(),
		VolatileHits:     t.volatileHits.Load(),
		VolatileMisses:   t.volatileMisses.Load(),
		PersistentHits:   t.persistentHits.Load(),
		PersistentMisses: t.persistentMisses.Load(),
		ServerCacheHits:  t.serverHits.Load(),
		ServerCacheMiss:  t.serverMisses.Load(),
		SourceFetches:    t.sourceFetches.Load(),
		SourceFailures:   t.sourceFailures.Load(),
		QuotaDenials:     t.quotaDenials.Load(),
		FailOpens:        t.failOpens.Load(),
		Evictions:        t.evictions.Load(),
		ErrorCount:       t.errorCount.Load(),
	}
	if state, ok := t.cbState.Load().(string); ok {
		snapshot.CircuitBreakerState = state
	}

	if len(latencyCopy) > 0 {
		snapshot.AvgLatencyMs = float64(avgDuration(latencyCopy).Milliseconds())
		snapshot.P50LatencyMs = float64(percentile(latencyCopy, 50).Milliseconds())
		snapshot.P95LatencyMs = float64(percentile(latencyCopy, 95).Milliseconds())
		snapshot.P99LatencyMs = float64(percentile(latencyCopy, 99).Milliseconds())
	}

	return snapshot
}

// Reset clears all metrics.
func (t *Tracker) Reset() {
	for _, c := range []*atomic.Int64{
		&t.volatileHits, &t.volatileMisses,
		&t.persistentHits, &t.persistentMisses,
		&t.serverHits, &t.serverMisses,
		&t.sourceFetches, &t.sourceFailures,
		&t.quotaDenials, &t.failOpens, &t.evictions,
		&t.errorCount, &t.cbStateChanges,
	} {
		c.Store(0)
	}
	t.cbState.Store("closed")

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	slices.Sort(sorted)

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
