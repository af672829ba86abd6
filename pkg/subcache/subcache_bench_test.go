package subcache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/LavishGent/subtitlecache/pkg/subcache"
)

func newBenchManager(b *testing.B) subcache.Manager {
	b.Helper()
	m, err := subcache.NewFromConfig(subcache.TestConfig(),
		subcache.WithoutPersistent(),
		subcache.WithRemote(&stubRemote{decision: subcache.FailOpenDecision()}),
		subcache.WithSource(&stubSource{}),
	)
	if err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkFetchSubtitles_MemoryHit(b *testing.B) {
	m := newBenchManager(b)
	defer m.Close()

	ctx := context.Background()
	_ = m.FetchSubtitles(ctx, "dQw4w9WgXcQ", "", "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.FetchSubtitles(ctx, "dQw4w9WgXcQ", "", "")
	}
}

func BenchmarkFetchSubtitles_Fresh(b *testing.B) {
	m := newBenchManager(b)
	defer m.Close()

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.FetchSubtitles(ctx, fmt.Sprintf("video-%d", i), "", "")
	}
}

func BenchmarkFetchSubtitles_Parallel(b *testing.B) {
	m := newBenchManager(b)
	defer m.Close()

	ctx := context.Background()
	ids := []string{"alpha", "bravo", "charlie"}
	for _, id := range ids {
		_ = m.FetchSubtitles(ctx, id, "", "")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = m.FetchSubtitles(ctx, ids[i%len(ids)], "", "")
			i++
		}
	})
}
