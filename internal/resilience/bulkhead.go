package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/LavishGent/subtitlecache/internal/config"
)

// Bulkhead defaults for zero config values.
const (
	defaultMaxConcurrent  = 10
	defaultMaxQueue       = 100
	defaultAcquireTimeout = 5 * time.Second
)

// Bulkhead caps concurrent calls to one upstream. Up to maxQueue callers may
// wait for a slot; beyond that calls are rejected with ErrBulkheadFull, and a
// caller that waits longer than acquireTimeout gets ErrBulkheadTimeout.
type Bulkhead struct {
	sem            *semaphore.Weighted
	maxConcurrent  int
	maxQueue       int
	acquireTimeout time.Duration

	active   atomic.Int32
	waiting  atomic.Int32
	rejected atomic.Int64
	executed atomic.Int64
}

// NewBulkhead creates a bulkhead from cfg.
func NewBulkhead(cfg config.BulkheadConfig) *Bulkhead {
	b := &Bulkhead{
		maxConcurrent:  cfg.MaxConcurrent,
		maxQueue:       cfg.MaxQueue,
		acquireTimeout: cfg.AcquireTimeout,
	}
	if b.maxConcurrent <= 0 {
		b.maxConcurrent = defaultMaxConcurrent
	}
	if b.maxQueue < 0 {
		b.maxQueue = defaultMaxQueue
	}
	if b.acquireTimeout <= 0 {
		b.acquireTimeout = defaultAcquireTimeout
	}
	b.sem = semaphore.NewWeighted(int64(b.maxConcurrent))
	return b
}

// ExecuteCtx runs fn once a slot is free.
func (b *Bulkhead) ExecuteCtx(ctx context.Context, fn func(context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()
	return fn(ctx)
}

// ExecuteWithResult is ExecuteCtx for operations that return a value.
func (b *Bulkhead) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()
	return fn(ctx)
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		b.active.Add(1)
		return nil
	}

	if int(b.waiting.Add(1)) > b.maxQueue {
		b.waiting.Add(-1)
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	defer b.waiting.Add(-1)

	waitCtx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			b.rejected.Add(1)
			return ErrBulkheadTimeout
		}
		return err
	}
	b.active.Add(1)
	return nil
}

func (b *Bulkhead) release() {
	b.active.Add(-1)
	b.executed.Add(1)
	b.sem.Release(1)
}

// Stats returns a point-in-time view of the bulkhead.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        int(b.active.Load()),
		Waiting:       int(b.waiting.Load()),
		Rejected:      b.rejected.Load(),
		Executed:      b.executed.Load(),
	}
}

// BulkheadStats contains bulkhead counters.
type BulkheadStats struct {
	Rejected      int64
	Executed      int64
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Waiting       int
}

// DisabledBulkhead lets every call through.
type DisabledBulkhead struct{}

func NewDisabledBulkhead() *DisabledBulkhead {
	return &DisabledBulkhead{}
}

func (DisabledBulkhead) ExecuteCtx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (DisabledBulkhead) ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func (DisabledBulkhead) Stats() BulkheadStats { return BulkheadStats{} }
