package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// LoggingPublisher writes metrics to a slog.Logger. Individual samples are
// logged at debug level; health reports and events at info.
type LoggingPublisher struct {
	logger *slog.Logger
	tags   []string
}

// NewLoggingPublisher creates a publisher that adds tags to every sample.
func NewLoggingPublisher(logger *slog.Logger, tags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{logger: logger.With("component", "metrics"), tags: tags}
}

func (p *LoggingPublisher) sample(kind, name string, value any, tags []string) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	p.logger.Debug(kind, "name", name, "value", value, "tags", joinTags(p.tags, tags))
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.sample("gauge", name, value, tags)
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.sample("count", name, int64(1), tags)
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.sample("count", name, value, tags)
}

func (p *LoggingPublisher) Histogram(name string, value float64, tags ...string) {
	p.sample("histogram", name, value, tags)
}

func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.sample("timing", name, duration, tags)
}

func (p *LoggingPublisher) Event(title, text, alertType string, tags ...string) {
	p.logger.Info(title, "text", text, "alert_type", alertType, "tags", joinTags(p.tags, tags))
}

// PublishHealthMetrics logs all health gauges as one record.
func (p *LoggingPublisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	gauges := HealthGauges(m)
	if gauges == nil {
		return
	}
	attrs := make([]any, 0, len(gauges))
	for _, g := range gauges {
		attrs = append(attrs, slog.Float64(g.Name, g.Value))
	}
	p.logger.Info("health", attrs...)
}

func (p *LoggingPublisher) Close() error { return nil }

// joinTags returns base followed by extra without writing into base's
// backing array.
func joinTags(base, extra []string) []string {
	switch {
	case len(extra) == 0:
		return base
	case len(base) == 0:
		return extra
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

var _ types.Publisher = (*LoggingPublisher)(nil)
