package resilience

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LavishGent/subtitlecache/internal/config"
)

// State is the circuit breaker state.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Breaker defaults for zero config values.
const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultOpenDuration     = 30 * time.Second
)

// CircuitBreaker short-circuits calls to one upstream after FailureThreshold
// consecutive failures. Only errors for which IsFailure is true count; a
// missing transcript is a healthy answer from a healthy provider.
type CircuitBreaker struct {
	cb       *gobreaker.CircuitBreaker
	onChange atomic.Pointer[func(from, to State)]
	trips    atomic.Int64
}

// NewCircuitBreaker creates a breaker for the named upstream.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *CircuitBreaker {
	failures := cfg.FailureThreshold
	if failures <= 0 {
		failures = defaultFailureThreshold
	}
	probes := cfg.SuccessThreshold
	if probes <= 0 {
		probes = defaultSuccessThreshold
	}
	openFor := cfg.OpenDuration
	if openFor <= 0 {
		openFor = defaultOpenDuration
	}

	b := &CircuitBreaker{}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(probes),
		Interval:    cfg.FailureWindow,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			return !IsFailure(err)
		},
		// Runs under the breaker's lock: must not call back into cb.
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				b.trips.Add(1)
			}
			if fn := b.onChange.Load(); fn != nil {
				(*fn)(fromGobreaker(from), fromGobreaker(to))
			}
		},
	})
	return b
}

// Name returns the upstream name.
func (b *CircuitBreaker) Name() string {
	return b.cb.Name()
}

// Execute runs fn unless the circuit is open. A rejected call returns an
// error matching ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, b.cb.Name(), err)
	}
	return result, err
}

// State returns the current state. An open circuit whose timeout has elapsed
// reports half-open.
func (b *CircuitBreaker) State() State {
	return fromGobreaker(b.cb.State())
}

// IsOpen reports whether calls are currently rejected.
func (b *CircuitBreaker) IsOpen() bool {
	return b.State() == StateOpen
}

// SetOnStateChange registers fn for state transitions. fn must not block.
func (b *CircuitBreaker) SetOnStateChange(fn func(from, to State)) {
	if fn == nil {
		b.onChange.Store(nil)
		return
	}
	b.onChange.Store(&fn)
}

// Stats returns the breaker's counters for the current generation.
func (b *CircuitBreaker) Stats() CircuitBreakerStats {
	c := b.cb.Counts()
	return CircuitBreakerStats{
		State:                b.State(),
		Requests:             c.Requests,
		ConsecutiveFailures:  c.ConsecutiveFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		Trips:                b.trips.Load(),
	}
}

// CircuitBreakerStats is a point-in-time view of a breaker.
type CircuitBreakerStats struct {
	Trips                int64
	State                State
	Requests             uint32
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
}

// DisabledCircuitBreaker never opens.
type DisabledCircuitBreaker struct{}

func NewDisabledCircuitBreaker() *DisabledCircuitBreaker {
	return &DisabledCircuitBreaker{}
}

func (DisabledCircuitBreaker) Execute(fn func() (any, error)) (any, error) { return fn() }
func (DisabledCircuitBreaker) State() State                                { return StateClosed }
func (DisabledCircuitBreaker) IsOpen() bool                                { return false }
func (DisabledCircuitBreaker) SetOnStateChange(fn func(from, to State))    {}
func (DisabledCircuitBreaker) Stats() CircuitBreakerStats                  { return CircuitBreakerStats{} }
