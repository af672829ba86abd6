package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// HealthReporter sends a health report to a publisher on a fixed interval
// until stopped, plus one final report on the way out.
type HealthReporter struct {
	publisher types.Publisher
	collect   func() *types.PublisherHealthMetrics
	logger    *slog.Logger
	interval  time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	reports atomic.Int64
}

// NewHealthReporter creates a reporter. collect is called once per report.
func NewHealthReporter(publisher types.Publisher, interval time.Duration, collect func() *types.PublisherHealthMetrics, logger *slog.Logger) *HealthReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthReporter{
		publisher: publisher,
		collect:   collect,
		interval:  interval,
		logger:    logger.With("component", "health-reporter"),
	}
}

// Start launches the reporting loop. It stops when ctx is done or Stop is
// called. Calling Start twice has no effect.
func (r *HealthReporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)
	r.logger.Debug("Health reporter started", "interval", r.interval)
}

// Stop ends the loop and waits for the final report.
func (r *HealthReporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done
}

func (r *HealthReporter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Report()
		case <-ctx.Done():
			r.Report()
			return
		}
	}
}

// Report collects and publishes one report immediately. It returns false if
// nothing was published.
func (r *HealthReporter) Report() (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered from panic while reporting health", "panic", p)
			ok = false
		}
	}()
	if r.collect == nil {
		return false
	}
	m := r.collect()
	if m == nil {
		return false
	}
	r.publisher.PublishHealthMetrics(m)
	r.reports.Add(1)
	return true
}

// Reports returns how many reports were published.
func (r *HealthReporter) Reports() int64 {
	return r.reports.Load()
}
