package metrics

import (
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// Recorder counts events in a Tracker and forwards them to a Publisher.
type Recorder struct {
	tracker   *Tracker
	publisher types.Publisher
}

// NewRecorder creates a recorder. A nil publisher only tracks.
func NewRecorder(tracker *Tracker, publisher types.Publisher) *Recorder {
	if tracker == nil {
		tracker = NewTracker()
	}
	if publisher == nil {
		publisher = NewNoOpPublisher()
	}
	return &Recorder{tracker: tracker, publisher: publisher}
}

// Tracker returns the underlying tracker.
func (r *Recorder) Tracker() *Tracker {
	return r.tracker
}

func (r *Recorder) RecordHit(tier string, latency time.Duration) {
	r.tracker.RecordHit(tier, latency)
	r.publisher.Incr("lookup", TierTag(tier), StatusTag("hit"))
	r.publisher.Timing("lookup.latency", latency, TierTag(tier))
}

func (r *Recorder) RecordMiss(tier string, latency time.Duration) {
	r.tracker.RecordMiss(tier, latency)
	r.publisher.Incr("lookup", TierTag(tier), StatusTag("miss"))
}

func (r *Recorder) RecordFetch(source string, success bool, latency time.Duration) {
	r.tracker.RecordFetch(source, success, latency)
	status := "success"
	if !success {
		status = "failure"
	}
	r.publisher.Incr("source.fetch", SourceTag(source), StatusTag(status))
	r.publisher.Timing("source.latency", latency, SourceTag(source))
}

func (r *Recorder) RecordQuotaDenied(reason string) {
	r.tracker.RecordQuotaDenied(reason)
	r.publisher.Incr("quota.denied", ReasonTag(reason))
}

func (r *Recorder) RecordFailOpen(reason string) {
	r.tracker.RecordFailOpen(reason)
	r.publisher.Incr("quota.fail_open", ReasonTag(reason))
}

func (r *Recorder) RecordEviction(tier string) {
	r.tracker.RecordEviction(tier)
	r.publisher.Incr("eviction", TierTag(tier))
}

func (r *Recorder) RecordError(layer string, operation string, err error) {
	r.tracker.RecordError(layer, operation, err)
	r.publisher.Incr("error", LayerTag(layer), OperationTag(operation))
}

func (r *Recorder) RecordCircuitBreakerStateChange(from, to string) {
	r.tracker.RecordCircuitBreakerStateChange(from, to)
	r.publisher.Event("Circuit breaker "+to, "circuit breaker moved from "+from+" to "+to, alertTypeFor(to), CircuitStateTag(to))
}

func alertTypeFor(state string) string {
	switch state {
	case "open":
		return "error"
	case "half-open":
		return "warning"
	default:
		return "info"
	}
}

var _ types.MetricsRecorder = (*Recorder)(nil)
