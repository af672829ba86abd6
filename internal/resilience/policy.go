// Package resilience guards calls to the remote cache service and the subtitle
// providers. Each upstream gets its own Policy: a bulkhead bounding
// concurrency, a retry loop for transient errors and a circuit breaker that
// sees every attempt.
package resilience

import (
	"context"

	"github.com/LavishGent/subtitlecache/internal/config"
)

// Executor is what callers of an upstream need from a policy.
type Executor interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	IsCircuitOpen() bool
	CircuitState() State
	SetOnCircuitStateChange(fn func(from, to State))
}

type breaker interface {
	Execute(fn func() (any, error)) (any, error)
	State() State
	IsOpen() bool
	SetOnStateChange(fn func(from, to State))
	Stats() CircuitBreakerStats
}

type retrier interface {
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	Stats() (retries, recovered, exhausted int64)
}

type limiter interface {
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	Stats() BulkheadStats
}

// Policy guards calls to one upstream.
type Policy struct {
	name     string
	breaker  breaker
	retry    retrier
	bulkhead limiter
}

// NewPolicy creates a policy for the named upstream. Disabled sections of
// cfg become pass-throughs.
func NewPolicy(name string, cfg *config.Config) *Policy {
	p := &Policy{name: name}

	if cfg.CircuitBreaker.Enabled {
		p.breaker = NewCircuitBreaker(name, cfg.CircuitBreaker)
	} else {
		p.breaker = NewDisabledCircuitBreaker()
	}

	if cfg.Retry.Enabled {
		p.retry = NewRetryPolicy(cfg.Retry)
	} else {
		p.retry = NewDisabledRetryPolicy()
	}

	if cfg.Bulkhead.Enabled {
		p.bulkhead = NewBulkhead(cfg.Bulkhead)
	} else {
		p.bulkhead = NewDisabledBulkhead()
	}

	return p
}

// Name returns the upstream name.
func (p *Policy) Name() string {
	return p.name
}

// Execute runs fn inside the bulkhead, retrying transient failures. Each
// attempt passes through the circuit breaker, so an open circuit ends the
// retry loop.
func (p *Policy) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := p.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// ExecuteWithResult is Execute for operations that return a value.
func (p *Policy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return p.bulkhead.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return p.retry.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			return p.breaker.Execute(func() (any, error) {
				return fn(ctx)
			})
		})
	})
}

func (p *Policy) IsCircuitOpen() bool {
	return p.breaker.IsOpen()
}

func (p *Policy) CircuitState() State {
	return p.breaker.State()
}

// SetOnCircuitStateChange registers a callback for breaker transitions.
func (p *Policy) SetOnCircuitStateChange(fn func(from, to State)) {
	p.breaker.SetOnStateChange(fn)
}

// Stats collects the counters of all three components.
func (p *Policy) Stats() PolicyStats {
	s := PolicyStats{
		Name:     p.name,
		Circuit:  p.breaker.Stats(),
		Bulkhead: p.bulkhead.Stats(),
	}
	s.Retries, s.Recovered, s.Exhausted = p.retry.Stats()
	return s
}

// PolicyStats is a point-in-time view of a policy.
type PolicyStats struct {
	Name      string
	Circuit   CircuitBreakerStats
	Bulkhead  BulkheadStats
	Retries   int64
	Recovered int64
	Exhausted int64
}

// DisabledPolicy runs every call directly.
type DisabledPolicy struct{}

// NewDisabledPolicy creates a disabled policy.
func NewDisabledPolicy() *DisabledPolicy {
	return &DisabledPolicy{}
}

func (DisabledPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (DisabledPolicy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func (DisabledPolicy) IsCircuitOpen() bool                             { return false }
func (DisabledPolicy) CircuitState() State                             { return StateClosed }
func (DisabledPolicy) SetOnCircuitStateChange(fn func(from, to State)) {}

var (
	_ Executor = (*Policy)(nil)
	_ Executor = (*DisabledPolicy)(nil)
)
