// Package datadog sends metrics to a DataDog agent over DogStatsD.
package datadog

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Service check names, reported with every health publish.
const (
	CheckRemote     = "subcache.remote"
	CheckPersistent = "subcache.persistent"
)

// Publisher implements types.Publisher on a statsd client.
type Publisher struct {
	client   statsd.ClientInterface
	logger   *slog.Logger
	failures atomic.Int64
}

// Option configures a Publisher.
type Option func(*options)

type options struct {
	client statsd.ClientInterface
}

// WithClient sends through client instead of dialing the configured agent.
// The config's prefix and tags are not applied to an injected client.
func WithClient(client statsd.ClientInterface) Option {
	return func(o *options) { o.client = client }
}

// NewPublisher returns a DataDog publisher, or a no-op publisher when cfg is
// disabled.
func NewPublisher(cfg *config.DataDogConfig, logger *slog.Logger, opts ...Option) (types.Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return metrics.NewNoOpPublisher(), nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	p := &Publisher{logger: logger.With("component", "datadog")}

	if o.client != nil {
		p.client = o.client
		return p, nil
	}

	addr := net.JoinHostPort(cfg.AgentHost, strconv.Itoa(cfg.Port))
	statsdOpts := []statsd.Option{
		statsd.WithTags(cfg.Tags),
		statsd.WithErrorHandler(func(err error) { p.failed("flush", "", err) }),
	}
	if cfg.Prefix != "" {
		statsdOpts = append(statsdOpts, statsd.WithNamespace(cfg.Prefix+"."))
	}

	client, err := statsd.New(addr, statsdOpts...)
	if err != nil {
		return nil, fmt.Errorf("create statsd client for %s: %w", addr, err)
	}
	p.client = client

	p.logger.Info("DataDog publisher initialized", "address", addr, "prefix", cfg.Prefix)
	return p, nil
}

// failed counts a send error. The client drops on a full buffer, so errors
// are only logged at debug level.
func (p *Publisher) failed(kind, name string, err error) {
	if err == nil {
		return
	}
	p.failures.Add(1)
	p.logger.Debug("Metric not sent", "kind", kind, "name", name, "error", err)
}

// Failures returns how many sends have failed.
func (p *Publisher) Failures() int64 {
	return p.failures.Load()
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	p.failed("gauge", name, p.client.Gauge(name, value, tags, 1))
}

func (p *Publisher) Incr(name string, tags ...string) {
	p.failed("incr", name, p.client.Incr(name, tags, 1))
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	p.failed("count", name, p.client.Count(name, value, tags, 1))
}

func (p *Publisher) Histogram(name string, value float64, tags ...string) {
	p.failed("histogram", name, p.client.Histogram(name, value, tags, 1))
}

// Timing is sent as a distribution so percentiles aggregate across hosts.
func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	ms := float64(duration) / float64(time.Millisecond)
	p.failed("distribution", name, p.client.Distribution(name, ms, tags, 1))
}

func (p *Publisher) Event(title, text, alertType string, tags ...string) {
	p.failed("event", title, p.client.Event(&statsd.Event{
		Title:     title,
		Text:      text,
		AlertType: statsd.EventAlertType(alertType),
		Tags:      tags,
	}))
}

// PublishHealthMetrics sends the health gauges and two service checks: the
// remote circuit (critical while open) and the persistent tier (warning while
// unavailable, since lookups continue without it).
func (p *Publisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}
	for _, g := range metrics.HealthGauges(m) {
		p.Gauge(g.Name, g.Value)
	}

	remote := &statsd.ServiceCheck{Name: CheckRemote, Status: statsd.Ok}
	if m.CircuitOpen {
		remote.Status = statsd.Critical
		remote.Message = "circuit open"
	}
	persistent := &statsd.ServiceCheck{Name: CheckPersistent, Status: statsd.Ok}
	if !m.PersistentAvailable {
		persistent.Status = statsd.Warn
		persistent.Message = "store unavailable"
	}
	p.failed("service_check", CheckRemote, p.client.ServiceCheck(remote))
	p.failed("service_check", CheckPersistent, p.client.ServiceCheck(persistent))
}

// Close flushes and closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ types.Publisher = (*Publisher)(nil)
