package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// DefaultBackgroundOpTimeout is the default timeout for background operations.
const DefaultBackgroundOpTimeout = 5 * time.Second

type backgroundJob struct {
	run     func(ctx context.Context) error
	op      string
	videoID string
}

// Dispatcher runs fire-and-forget remote work off the fetch path. Jobs are
// queued up to MaxPending and drained by a fixed set of workers; a job that
// does not fit is dropped. Failures are logged and never reach the caller.
type Dispatcher struct {
	queue     chan backgroundJob
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger
	metrics   types.MetricsRecorder
	opTimeout time.Duration
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool

	pending atomic.Int32
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewDispatcher starts cfg.Workers workers.
func NewDispatcher(cfg config.BackgroundConfig, logger *slog.Logger, recorder types.MetricsRecorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoOpTracker()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 64
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultBackgroundOpTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:     make(chan backgroundJob, cfg.MaxPending),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With("component", "background"),
		metrics:   recorder,
		opTimeout: cfg.OpTimeout,
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues fn without blocking. It returns ErrQueueFull when the job
// was dropped and ErrClosed after Close.
func (d *Dispatcher) Submit(op, videoID string, fn func(ctx context.Context) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return types.ErrClosed
	}

	select {
	case d.queue <- backgroundJob{run: fn, op: op, videoID: videoID}:
		d.pending.Add(1)
		return nil
	default:
		d.dropped.Add(1)
		d.logger.Warn("Background queue full, dropping job",
			"op", op,
			"video_id", videoID,
			"dropped_total", d.dropped.Load(),
		)
		return types.ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		d.execute(job)
	}
}

func (d *Dispatcher) execute(job backgroundJob) {
	defer d.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("Recovered from panic in background job", "op", job.op, "video_id", job.videoID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.opTimeout)
	defer cancel()

	if err := job.run(ctx); err != nil {
		d.failed.Add(1)
		d.metrics.RecordError("background", job.op, err)
		d.logger.Debug("Background job failed", "op", job.op, "video_id", job.videoID, "error", err)
	}
}

// Pending returns the number of queued or running jobs.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Dropped returns how many jobs were rejected because the queue was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Failed returns how many jobs returned an error or panicked.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for the queue to drain. If that takes
// longer than timeout, running jobs are canceled and ErrShutdownTimeout is
// returned.
func (d *Dispatcher) Close(timeout time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	defer d.cancel()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		d.logger.Warn("Shutdown timeout exceeded, canceling background jobs",
			"timeout", timeout,
			"pending", d.Pending(),
		)
		return types.ErrShutdownTimeout
	}
}
