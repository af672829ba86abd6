package metrics

import (
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// NoOpTracker is a no-operation metrics recorder for tests and disabled metrics.
type NoOpTracker struct{}

// NewNoOpTracker creates a new no-op tracker.
func NewNoOpTracker() *NoOpTracker {
	return &NoOpTracker{}
}

func (t *NoOpTracker) RecordHit(tier string, latency time.Duration)                   {}
func (t *NoOpTracker) RecordMiss(tier string, latency time.Duration)                  {}
func (t *NoOpTracker) RecordFetch(source string, success bool, latency time.Duration) {}
func (t *NoOpTracker) RecordQuotaDenied(reason string)                                {}
func (t *NoOpTracker) RecordFailOpen(reason string)                                   {}
func (t *NoOpTracker) RecordEviction(tier string)                                     {}
func (t *NoOpTracker) RecordError(layer string, operation string, err error)          {}
func (t *NoOpTracker) RecordCircuitBreakerStateChange(from, to string)                {}

// Snapshot returns empty metrics.
func (t *NoOpTracker) Snapshot() types.MetricsSnapshot { return types.MetricsSnapshot{} }

// Reset does nothing.
func (t *NoOpTracker) Reset() {}

// NoOpPublisher is a no-operation metrics publisher for testing or when disabled.
type NoOpPublisher struct{}

// NewNoOpPublisher creates a new no-op publisher.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) Gauge(name string, value float64, tags ...string)           {}
func (p *NoOpPublisher) Incr(name string, tags ...string)                           {}
func (p *NoOpPublisher) Count(name string, value int64, tags ...string)             {}
func (p *NoOpPublisher) Histogram(name string, value float64, tags ...string)       {}
func (p *NoOpPublisher) Timing(name string, duration time.Duration, tags ...string) {}
func (p *NoOpPublisher) Event(title, text, alertType string, tags ...string)        {}
func (p *NoOpPublisher) PublishHealthMetrics(metrics *types.PublisherHealthMetrics) {}
func (p *NoOpPublisher) Close() error                                               { return nil }

var _ types.MetricsRecorder = (*NoOpTracker)(nil)
var _ types.Publisher = (*NoOpPublisher)(nil)
