package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/LavishGent/subtitlecache/internal/config"
)

// Retry defaults for zero config values.
const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultMultiplier     = 2.0
	jitterFactor          = 0.5
)

// RetryPolicy repeats transient failures with exponential backoff. Errors for
// which IsRetryable is false end the loop immediately.
type RetryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         bool

	retries  atomic.Int64
	giveUps  atomic.Int64
	recovers atomic.Int64
}

// NewRetryPolicy creates a retry policy from cfg.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	rp := &RetryPolicy{
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		multiplier:     cfg.Multiplier,
		jitter:         cfg.Jitter,
	}
	if rp.maxAttempts <= 0 {
		rp.maxAttempts = defaultMaxAttempts
	}
	if rp.initialBackoff <= 0 {
		rp.initialBackoff = defaultInitialBackoff
	}
	if rp.maxBackoff <= 0 {
		rp.maxBackoff = defaultMaxBackoff
	}
	if rp.multiplier < 1 {
		rp.multiplier = defaultMultiplier
	}
	return rp
}

func (rp *RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rp.initialBackoff
	bo.MaxInterval = rp.maxBackoff
	bo.Multiplier = rp.multiplier
	bo.RandomizationFactor = 0
	if rp.jitter {
		bo.RandomizationFactor = jitterFactor
	}
	return bo
}

// ExecuteCtx runs fn until it succeeds, fails permanently, runs out of
// attempts or ctx is done.
func (rp *RetryPolicy) ExecuteCtx(ctx context.Context, fn func(context.Context) error) error {
	_, err := rp.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// ExecuteWithResult is ExecuteCtx for operations that return a value.
func (rp *RetryPolicy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	attempts := 0
	op := func() (any, error) {
		attempts++
		result, err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(rp.newBackOff()),
		backoff.WithMaxTries(uint(rp.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(error, time.Duration) { rp.retries.Add(1) }),
	)

	// The last attempt is returned as-is by backoff, even when marked permanent.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}

	switch {
	case err != nil && attempts > 1:
		rp.giveUps.Add(1)
	case err == nil && attempts > 1:
		rp.recovers.Add(1)
	}
	return result, err
}

// Stats returns how many retries were scheduled, how many calls succeeded
// after at least one retry and how many failed despite retrying.
func (rp *RetryPolicy) Stats() (retries, recovered, exhausted int64) {
	return rp.retries.Load(), rp.recovers.Load(), rp.giveUps.Load()
}

// DisabledRetryPolicy runs each call exactly once.
type DisabledRetryPolicy struct{}

func NewDisabledRetryPolicy() *DisabledRetryPolicy {
	return &DisabledRetryPolicy{}
}

func (DisabledRetryPolicy) ExecuteCtx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (DisabledRetryPolicy) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func (DisabledRetryPolicy) Stats() (retries, recovered, exhausted int64) { return 0, 0, 0 }
