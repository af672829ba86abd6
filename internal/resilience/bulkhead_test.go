package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
)

// occupy fills n slots and returns a func that frees them.
func occupy(t *testing.T, b *Bulkhead, n int) func() {
	t.Helper()
	release := make(chan struct{})
	var started sync.WaitGroup
	var done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer done.Done()
			_ = b.ExecuteCtx(context.Background(), func(ctx context.Context) error {
				started.Done()
				<-release
				return nil
			})
		}()
	}
	started.Wait()
	return func() {
		close(release)
		done.Wait()
	}
}

func TestBulkhead_RunsWithinLimit(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 0, AcquireTimeout: time.Second})

	v, err := b.ExecuteWithResult(context.Background(), func(ctx context.Context) (any, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("ExecuteWithResult() = %v, %v", v, err)
	}
	s := b.Stats()
	if s.Executed != 1 || s.Active != 0 || s.MaxConcurrent != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBulkhead_RejectsWhenQueueFull(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 0, AcquireTimeout: time.Second})
	free := occupy(t, b, 1)
	defer free()

	err := b.ExecuteCtx(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("err = %v, want ErrBulkheadFull", err)
	}
	if !IsBulkheadError(err) {
		t.Error("IsBulkheadError() = false")
	}
	if got := b.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestBulkhead_WaiterTimesOut(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 1, AcquireTimeout: 20 * time.Millisecond})
	free := occupy(t, b, 1)
	defer free()

	err := b.ExecuteCtx(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("err = %v, want ErrBulkheadTimeout", err)
	}
	if got := b.Stats().Waiting; got != 0 {
		t.Errorf("Waiting = %d, want 0 after timeout", got)
	}
}

func TestBulkhead_WaiterGetsFreedSlot(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 1, AcquireTimeout: time.Second})
	free := occupy(t, b, 1)

	result := make(chan error, 1)
	go func() {
		result <- b.ExecuteCtx(context.Background(), func(ctx context.Context) error { return nil })
	}()

	time.Sleep(20 * time.Millisecond)
	free()

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never ran")
	}
	if got := b.Stats().Executed; got != 2 {
		t.Errorf("Executed = %d, want 2", got)
	}
}

func TestBulkhead_CallerCancelWhileWaiting(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 4, AcquireTimeout: time.Second})
	free := occupy(t, b, 1)
	defer free()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.ExecuteCtx(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want the caller's deadline", err)
	}
	if IsBulkheadError(err) {
		t.Error("caller deadline reported as a bulkhead error")
	}
}

func TestBulkhead_Defaults(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxQueue: -1})
	s := b.Stats()
	if s.MaxConcurrent != defaultMaxConcurrent || s.MaxQueue != defaultMaxQueue {
		t.Errorf("Stats() = %+v, want defaults", s)
	}
	if b.acquireTimeout != defaultAcquireTimeout {
		t.Errorf("acquireTimeout = %v, want %v", b.acquireTimeout, defaultAcquireTimeout)
	}
}

func TestDisabledBulkhead(t *testing.T) {
	b := NewDisabledBulkhead()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.ExecuteCtx(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
				t.Errorf("err = %v", err)
			}
		}()
	}
	wg.Wait()
}
