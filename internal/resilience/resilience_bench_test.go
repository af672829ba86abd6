package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
)

func BenchmarkCircuitBreaker_Execute(b *testing.B) {
	cb := NewCircuitBreaker("bench", config.CircuitBreakerConfig{FailureThreshold: 5, OpenDuration: time.Minute})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cb.Execute(succeeding)
	}
}

func BenchmarkCircuitBreaker_Open(b *testing.B) {
	cb := NewCircuitBreaker("bench", config.CircuitBreakerConfig{FailureThreshold: 1, OpenDuration: time.Hour})
	_, _ = cb.Execute(failing)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cb.Execute(succeeding)
	}
}

func BenchmarkRetry_FirstAttemptSucceeds(b *testing.B) {
	rp := fastRetry(3)
	ctx := context.Background()
	fn := func(ctx context.Context) error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rp.ExecuteCtx(ctx, fn)
	}
}

func BenchmarkBulkhead_Parallel(b *testing.B) {
	bh := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 8, MaxQueue: 1024, AcquireTimeout: time.Second})
	ctx := context.Background()
	fn := func(ctx context.Context) error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = bh.ExecuteCtx(ctx, fn)
		}
	})
}

func BenchmarkPolicy_Execute(b *testing.B) {
	p := NewPolicy("bench", policyConfig())
	ctx := context.Background()
	fn := func(ctx context.Context) error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Execute(ctx, fn)
	}
}
