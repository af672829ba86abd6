package metrics

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	if tracker == nil {
		t.Fatal("NewTracker() returned nil")
	}

	snapshot := tracker.Snapshot()
	if snapshot.VolatileHits != 0 || snapshot.SourceFetches != 0 {
		t.Errorf("initial snapshot not empty: %+v", snapshot)
	}
	if snapshot.CircuitBreakerState != "closed" {
		t.Errorf("CircuitBreakerState = %q, want closed", snapshot.CircuitBreakerState)
	}
}

func TestTrackerRecordHitMiss(t *testing.T) {
	tracker := NewTracker()

	tests := []struct {
		tier    string
		hits    func(types.MetricsSnapshot) int64
		misses  func(types.MetricsSnapshot) int64
		display string
	}{
		{TierVolatile, func(s types.MetricsSnapshot) int64 { return s.VolatileHits }, func(s types.MetricsSnapshot) int64 { return s.VolatileMisses }, "volatile"},
		{TierPersistent, func(s types.MetricsSnapshot) int64 { return s.PersistentHits }, func(s types.MetricsSnapshot) int64 { return s.PersistentMisses }, "persistent"},
		{TierServer, func(s types.MetricsSnapshot) int64 { return s.ServerCacheHits }, func(s types.MetricsSnapshot) int64 { return s.ServerCacheMiss }, "server"},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			tracker.Reset()
			tracker.RecordHit(tt.tier, 10*time.Millisecond)
			tracker.RecordMiss(tt.tier, 5*time.Millisecond)
			tracker.RecordMiss(tt.tier, 5*time.Millisecond)

			snapshot := tracker.Snapshot()
			if got := tt.hits(snapshot); got != 1 {
				t.Errorf("hits = %d, want 1", got)
			}
			if got := tt.misses(snapshot); got != 2 {
				t.Errorf("misses = %d, want 2", got)
			}
		})
	}
}

func TestTrackerOutcomes(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordFetch("cloud-provider", true, 100*time.Millisecond)
	tracker.RecordFetch("local-server", false, 50*time.Millisecond)
	tracker.RecordQuotaDenied("burst_limit")
	tracker.RecordFailOpen("network")
	tracker.RecordFailOpen("no_token")
	tracker.RecordEviction(TierVolatile)
	tracker.RecordError("remote", "store", errors.New("timeout"))

	snapshot := tracker.Snapshot()
	if snapshot.SourceFetches != 2 {
		t.Errorf("SourceFetches = %d, want 2", snapshot.SourceFetches)
	}
	if snapshot.SourceFailures != 1 {
		t.Errorf("SourceFailures = %d, want 1", snapshot.SourceFailures)
	}
	if snapshot.QuotaDenials != 1 {
		t.Errorf("QuotaDenials = %d, want 1", snapshot.QuotaDenials)
	}
	if snapshot.FailOpens != 2 {
		t.Errorf("FailOpens = %d, want 2", snapshot.FailOpens)
	}
	if snapshot.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", snapshot.Evictions)
	}
	if snapshot.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", snapshot.ErrorCount)
	}
	if snapshot.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestTrackerRecordCircuitBreakerStateChange(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCircuitBreakerStateChange("closed", "open")

	if tracker.CircuitBreakerStateChanges() != 1 {
		t.Errorf("CircuitBreakerStateChanges() = %d, want 1", tracker.CircuitBreakerStateChanges())
	}
	if got := tracker.Snapshot().CircuitBreakerState; got != "open" {
		t.Errorf("CircuitBreakerState = %q, want open", got)
	}
}

func TestTrackerLatencyPercentiles(t *testing.T) {
	tracker := NewTracker()

	for i := 1; i <= 10; i++ {
		tracker.RecordHit(TierVolatile, time.Duration(i*10)*time.Millisecond)
	}

	snapshot := tracker.Snapshot()

	if snapshot.AvgLatencyMs < 50 || snapshot.AvgLatencyMs > 60 {
		t.Errorf("AvgLatencyMs = %f, want ~55", snapshot.AvgLatencyMs)
	}
	if snapshot.P50LatencyMs < 40 || snapshot.P50LatencyMs > 60 {
		t.Errorf("P50LatencyMs = %f, want ~50", snapshot.P50LatencyMs)
	}
	if snapshot.P95LatencyMs < 80 || snapshot.P95LatencyMs > 110 {
		t.Errorf("P95LatencyMs = %f, want ~90-100", snapshot.P95LatencyMs)
	}
}

func TestTrackerMissesDoNotSkewLatency(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordMiss(TierVolatile, time.Second)

	if got := tracker.Snapshot().AvgLatencyMs; got != 0 {
		t.Errorf("AvgLatencyMs = %f, want 0", got)
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordHit(TierVolatile, 10*time.Millisecond)
	tracker.RecordMiss(TierPersistent, 20*time.Millisecond)
	tracker.RecordFetch("cloud-provider", true, 15*time.Millisecond)
	tracker.RecordError("remote", "check", errors.New("error"))
	tracker.RecordCircuitBreakerStateChange("closed", "open")

	tracker.Reset()

	snapshot := tracker.Snapshot()
	if snapshot.VolatileHits != 0 {
		t.Errorf("after reset VolatileHits = %d, want 0", snapshot.VolatileHits)
	}
	if snapshot.PersistentMisses != 0 {
		t.Errorf("after reset PersistentMisses = %d, want 0", snapshot.PersistentMisses)
	}
	if snapshot.SourceFetches != 0 {
		t.Errorf("after reset SourceFetches = %d, want 0", snapshot.SourceFetches)
	}
	if snapshot.ErrorCount != 0 {
		t.Errorf("after reset ErrorCount = %d, want 0", snapshot.ErrorCount)
	}
	if snapshot.AvgLatencyMs != 0 {
		t.Errorf("after reset AvgLatencyMs = %f, want 0", snapshot.AvgLatencyMs)
	}
	if snapshot.CircuitBreakerState != "closed" {
		t.Errorf("after reset CircuitBreakerState = %q, want closed", snapshot.CircuitBreakerState)
	}
}

func TestTrackerLatencyCircularBuffer(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < 150; i++ {
		tracker.RecordHit(TierVolatile, time.Duration(i)*time.Millisecond)
	}

	tracker.latencyMu.RLock()
	count := tracker.latencyCount
	tracker.latencyMu.RUnlock()

	if count != 150 {
		t.Errorf("latencies count = %d, want 150", count)
	}

	snapshot := tracker.Snapshot()
	if snapshot.AvgLatencyMs == 0 {
		t.Error("AvgLatencyMs should not be zero")
	}
}

func TestTrackerConcurrency(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			tracker.RecordHit(TierVolatile, 10*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.RecordMiss(TierPersistent, 20*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.RecordFetch("local-server", true, 15*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.Snapshot()
		}()
	}

	wg.Wait()

	snapshot := tracker.Snapshot()
	if snapshot.VolatileHits != 100 {
		t.Errorf("VolatileHits = %d, want 100", snapshot.VolatileHits)
	}
	if snapshot.PersistentMisses != 100 {
		t.Errorf("PersistentMisses = %d, want 100", snapshot.PersistentMisses)
	}
	if snapshot.SourceFetches != 100 {
		t.Errorf("SourceFetches = %d, want 100", snapshot.SourceFetches)
	}
}

func TestRecorder(t *testing.T) {
	t.Run("counts and forwards", func(t *testing.T) {
		publisher := &trackingPublisher{}
		recorder := NewRecorder(nil, publisher)

		recorder.RecordHit(TierVolatile, time.Millisecond)
		recorder.RecordMiss(TierPersistent, time.Millisecond)
		recorder.RecordFetch("cloud-provider", false, time.Millisecond)
		recorder.RecordQuotaDenied("")
		recorder.RecordFailOpen("network")
		recorder.RecordEviction(TierVolatile)
		recorder.RecordError("remote", "log", errors.New("boom"))
		recorder.RecordCircuitBreakerStateChange("closed", "open")

		snapshot := recorder.Tracker().Snapshot()
		if snapshot.VolatileHits != 1 || snapshot.PersistentMisses != 1 {
			t.Errorf("tier counters = %+v", snapshot)
		}
		if snapshot.SourceFailures != 1 {
			t.Errorf("SourceFailures = %d, want 1", snapshot.SourceFailures)
		}
		if publisher.incrCount.Load() != 7 {
			t.Errorf("incrCount = %d, want 7", publisher.incrCount.Load())
		}
		if publisher.timingCount.Load() != 2 {
			t.Errorf("timingCount = %d, want 2", publisher.timingCount.Load())
		}
		if publisher.eventCount.Load() != 1 {
			t.Errorf("eventCount = %d, want 1", publisher.eventCount.Load())
		}
		if !publisher.sawTag("reason:unknown") {
			t.Error("empty quota reason was not tagged as unknown")
		}
	})

	t.Run("nil publisher only tracks", func(t *testing.T) {
		recorder := NewRecorder(NewTracker(), nil)
		recorder.RecordFailOpen("decode")

		if got := recorder.Tracker().Snapshot().FailOpens; got != 1 {
			t.Errorf("FailOpens = %d, want 1", got)
		}
	})
}

func TestAlertTypeFor(t *testing.T) {
	tests := map[string]string{
		"open":      "error",
		"half-open": "warning",
		"closed":    "info",
	}
	for state, want := range tests {
		if got := alertTypeFor(state); got != want {
			t.Errorf("alertTypeFor(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestLoggingPublisher(t *testing.T) {
	t.Run("creates with default logger", func(t *testing.T) {
		if NewLoggingPublisher(nil) == nil {
			t.Fatal("NewLoggingPublisher(nil) returned nil")
		}
	})

	t.Run("health report is one record", func(t *testing.T) {
		var buf bytes.Buffer
		publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

		publisher.PublishHealthMetrics(&types.PublisherHealthMetrics{
			VolatileEntries:     2,
			VolatileMaxEntries:  3,
			PersistentAvailable: true,
			LocalHitRatio:       0.75,
			DroppedBackground:   1,
		})

		output := buf.String()
		if strings.Count(output, "\n") != 1 {
			t.Errorf("want one log line, got %q", output)
		}
		for _, want := range []string{"volatile.entries=2", "persistent.available=1", "background.dropped=1"} {
			if !strings.Contains(output, want) {
				t.Errorf("log output missing %s: %s", want, output)
			}
		}
	})

	t.Run("nil health metrics are ignored", func(t *testing.T) {
		var buf bytes.Buffer
		publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
		publisher.PublishHealthMetrics(nil)

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("samples log at debug only", func(t *testing.T) {
		var info bytes.Buffer
		NewLoggingPublisher(slog.New(slog.NewTextHandler(&info, nil))).Incr("lookup")
		if info.Len() != 0 {
			t.Errorf("sample logged at info level: %q", info.String())
		}

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		publisher := NewLoggingPublisher(logger, "service:subcache")

		publisher.Gauge("volatile.entries", 2, "tier:volatile")
		publisher.Incr("lookup", "status:hit")
		publisher.Timing("lookup.latency", 100*time.Millisecond, "tier:volatile")

		if got := strings.Count(buf.String(), "service:subcache"); got != 3 {
			t.Errorf("base tag on %d lines, want 3: %s", got, buf.String())
		}
	})

	t.Run("event", func(t *testing.T) {
		var buf bytes.Buffer
		publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

		publisher.Event("Circuit breaker open", "remote unavailable", "error", "circuit_state:open")

		if !strings.Contains(buf.String(), "alert_type=error") {
			t.Errorf("event output = %q", buf.String())
		}
	})

	t.Run("close returns nil", func(t *testing.T) {
		if err := NewLoggingPublisher(nil).Close(); err != nil {
			t.Errorf("Close() error = %v, want nil", err)
		}
	})
}

func TestJoinTags(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "service:subcache"

	a := joinTags(base, []string{"tier:volatile"})
	b := joinTags(base, []string{"tier:persistent"})
	if a[1] != "tier:volatile" || b[1] != "tier:persistent" {
		t.Errorf("joined tags alias each other: %v %v", a, b)
	}
	if got := joinTags(nil, []string{"x:y"}); len(got) != 1 {
		t.Errorf("joinTags(nil, ...) = %v", got)
	}
	if got := joinTags(base, nil); len(got) != 1 {
		t.Errorf("joinTags(base, nil) = %v", got)
	}
}

func healthy() *types.PublisherHealthMetrics {
	return &types.PublisherHealthMetrics{VolatileEntries: 1}
}

func TestHealthReporter(t *testing.T) {
	t.Run("reports on interval and on stop", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, 10*time.Millisecond, healthy, nil)

		r.Start(context.Background())
		time.Sleep(50 * time.Millisecond)
		r.Stop()

		if publisher.publishCount.Load() < 2 {
			t.Errorf("publishCount = %d, want ticks plus final report", publisher.publishCount.Load())
		}
		if r.Reports() != publisher.publishCount.Load() {
			t.Errorf("Reports() = %d, publishCount = %d", r.Reports(), publisher.publishCount.Load())
		}
	})

	t.Run("final report on stop", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, time.Hour, healthy, nil)

		r.Start(context.Background())
		r.Stop()

		if publisher.publishCount.Load() != 1 {
			t.Errorf("publishCount = %d, want 1", publisher.publishCount.Load())
		}
	})

	t.Run("stop without start", func(t *testing.T) {
		r := NewHealthReporter(&trackingPublisher{}, time.Hour, healthy, nil)
		r.Stop()
	})

	t.Run("second start is ignored", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, time.Hour, healthy, nil)

		r.Start(context.Background())
		r.Start(context.Background())
		r.Stop()

		if publisher.publishCount.Load() != 1 {
			t.Errorf("publishCount = %d, want 1", publisher.publishCount.Load())
		}
	})

	t.Run("report recovers from panicking collector", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, time.Hour, func() *types.PublisherHealthMetrics {
			panic("boom")
		}, nil)

		if r.Report() {
			t.Error("Report() = true after panic")
		}
		if publisher.publishCount.Load() != 0 {
			t.Error("expected no publish after panic")
		}
	})

	t.Run("nil collector result is skipped", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, time.Hour, func() *types.PublisherHealthMetrics { return nil }, nil)

		if r.Report() || publisher.publishCount.Load() != 0 {
			t.Error("nil health was published")
		}
	})

	t.Run("parent context cancellation", func(t *testing.T) {
		publisher := &trackingPublisher{}
		r := NewHealthReporter(publisher, time.Hour, healthy, nil)

		ctx, cancel := context.WithCancel(context.Background())
		r.Start(ctx)
		cancel()
		r.Stop()

		if publisher.publishCount.Load() != 1 {
			t.Errorf("publishCount = %d, want 1", publisher.publishCount.Load())
		}
	})
}

func TestHealthGauges(t *testing.T) {
	if HealthGauges(nil) != nil {
		t.Error("HealthGauges(nil) != nil")
	}

	gauges := HealthGauges(&types.PublisherHealthMetrics{
		VolatileEntries:  3,
		TotalHitRatio:    -0.2,
		LocalHitRatio:    1.2,
		P95LatencyMs:     -1,
		CircuitOpen:      true,
		QuotaDenials:     4,
		AverageLatencyMs: 12.5,
	})
	got := make(map[string]float64, len(gauges))
	for _, g := range gauges {
		got[g.Name] = g.Value
	}

	want := map[string]float64{
		"volatile.entries":               3,
		"performance.total_hit_ratio":    0,
		"performance.local_hit_ratio":    1,
		"performance.p95_latency_ms":     0,
		"performance.average_latency_ms": 12.5,
		"remote.circuit_open":            1,
		"persistent.available":           0,
		"quota.denials":                  4,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestHealthFromSnapshot(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordHit(TierVolatile, 10*time.Millisecond)
	tracker.RecordMiss(TierVolatile, 0)
	tracker.RecordMiss(TierPersistent, 0)
	tracker.RecordFailOpen("network")
	tracker.RecordCircuitBreakerStateChange("closed", "open")

	health := HealthFromSnapshot(tracker.Snapshot())

	if health.LocalHitRatio != 0.5 {
		t.Errorf("LocalHitRatio = %f, want 0.5", health.LocalHitRatio)
	}
	if health.FailOpens != 1 {
		t.Errorf("FailOpens = %d, want 1", health.FailOpens)
	}
	if !health.CircuitOpen {
		t.Error("CircuitOpen = false, want true")
	}
}

func TestNoOpTracker(t *testing.T) {
	tracker := NewNoOpTracker()

	tracker.RecordHit(TierVolatile, 10*time.Millisecond)
	tracker.RecordMiss(TierPersistent, 10*time.Millisecond)
	tracker.RecordFetch("cloud-provider", true, 10*time.Millisecond)
	tracker.RecordQuotaDenied("burst_limit")
	tracker.RecordFailOpen("network")
	tracker.RecordEviction(TierVolatile)
	tracker.RecordError("remote", "check", errors.New("error"))
	tracker.RecordCircuitBreakerStateChange("closed", "open")
	tracker.Reset()

	snapshot := tracker.Snapshot()
	if snapshot.VolatileHits != 0 || snapshot.SourceFetches != 0 {
		t.Errorf("NoOp snapshot not empty: %+v", snapshot)
	}
}

func TestNoOpPublisher(t *testing.T) {
	publisher := NewNoOpPublisher()

	publisher.Gauge("test", 1.0, "tag:value")
	publisher.Incr("test", "tag:value")
	publisher.Count("test", 10, "tag:value")
	publisher.Histogram("test", 1.5, "tag:value")
	publisher.Timing("test", time.Second, "tag:value")
	publisher.Event("title", "text", "info", "tag:value")
	publisher.PublishHealthMetrics(&types.PublisherHealthMetrics{})

	if err := publisher.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestAvgDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		expected  time.Duration
	}{
		{"empty", []time.Duration{}, 0},
		{"single", []time.Duration{10 * time.Millisecond}, 10 * time.Millisecond},
		{"multiple", []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := avgDuration(tt.durations); result != tt.expected {
				t.Errorf("avgDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	ten := make([]time.Duration, 0, 10)
	for i := 1; i <= 10; i++ {
		ten = append(ten, time.Duration(i)*time.Millisecond)
	}

	tests := []struct {
		name      string
		durations []time.Duration
		p         int
		expected  time.Duration
	}{
		{"empty", []time.Duration{}, 50, 0},
		{"single_p50", []time.Duration{10 * time.Millisecond}, 50, 10 * time.Millisecond},
		{"ten_values_p50", ten, 50, 5 * time.Millisecond},
		{"ten_values_p90", ten, 90, 9 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := percentile(tt.durations, tt.p); result != tt.expected {
				t.Errorf("percentile(%d) = %v, want %v", tt.p, result, tt.expected)
			}
		})
	}
}

func TestTagHelpers(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{"Tag", func() string { return Tag("key", "value") }, "key:value"},
		{"TierTag", func() string { return TierTag("volatile") }, "tier:volatile"},
		{"SourceTag", func() string { return SourceTag("local-server") }, "source:local-server"},
		{"ReasonTag", func() string { return ReasonTag("burst_limit") }, "reason:burst_limit"},
		{"ReasonTag empty", func() string { return ReasonTag("") }, "reason:unknown"},
		{"OperationTag", func() string { return OperationTag("check") }, "operation:check"},
		{"StatusTag", func() string { return StatusTag("hit") }, "status:hit"},
		{"LayerTag", func() string { return LayerTag("remote") }, "layer:remote"},
		{"CircuitStateTag", func() string { return CircuitStateTag("open") }, "circuit_state:open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.fn(); result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestStartTimer(t *testing.T) {
	publisher := &trackingPublisher{}

	stop := StartTimer(publisher, "fetch.latency", "tier:volatile")
	time.Sleep(10 * time.Millisecond)

	if elapsed := stop("outcome:memory"); elapsed < 10*time.Millisecond {
		t.Errorf("stop() = %v, want >= 10ms", elapsed)
	}
	if publisher.timingCount.Load() != 1 {
		t.Errorf("timingCount = %d, want 1", publisher.timingCount.Load())
	}
	if !publisher.sawTag("tier:volatile") || !publisher.sawTag("outcome:memory") {
		t.Error("stop() did not publish both start and stop tags")
	}
}

type trackingPublisher struct {
	publishCount atomic.Int64
	timingCount  atomic.Int64
	incrCount    atomic.Int64
	eventCount   atomic.Int64

	mu   sync.Mutex
	tags []string
}

func (p *trackingPublisher) record(tags []string) {
	p.mu.Lock()
	p.tags = append(p.tags, tags...)
	p.mu.Unlock()
}

func (p *trackingPublisher) sawTag(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *trackingPublisher) Gauge(name string, value float64, tags ...string) {}
func (p *trackingPublisher) Incr(name string, tags ...string) {
	p.incrCount.Add(1)
	p.record(tags)
}
func (p *trackingPublisher) Count(name string, value int64, tags ...string)       {}
func (p *trackingPublisher) Histogram(name string, value float64, tags ...string) {}
func (p *trackingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.timingCount.Add(1)
	p.record(tags)
}
func (p *trackingPublisher) Event(title, text, alertType string, tags ...string) {
	p.eventCount.Add(1)
	p.record(tags)
}
func (p *trackingPublisher) PublishHealthMetrics(metrics *types.PublisherHealthMetrics) {
	p.publishCount.Add(1)
}
func (p *trackingPublisher) Close() error { return nil }

var _ types.Publisher = (*trackingPublisher)(nil)
