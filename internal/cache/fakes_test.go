package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

type fakeRemote struct {
	mu       sync.Mutex
	decision types.QuotaDecision
	stored   []string
	logs     []types.FetchLog

	checks atomic.Int32
	stores atomic.Int32
	logged atomic.Int32
}

func newFakeRemote(d types.QuotaDecision) *fakeRemote {
	return &fakeRemote{decision: d}
}

func (f *fakeRemote) CheckCacheAndLimits(ctx context.Context, videoID, language string) types.QuotaDecision {
	f.checks.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.decision
	d.Subtitles = d.Subtitles.Clone()
	return d
}

func (f *fakeRemote) StoreInServerCache(ctx context.Context, videoID, title, channel string, payload *types.SubtitlePayload) error {
	f.stores.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, videoID)
	return nil
}

func (f *fakeRemote) LogFetch(ctx context.Context, entry types.FetchLog) error {
	f.logged.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeRemote) lastLog() (types.FetchLog, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logs) == 0 {
		return types.FetchLog{}, false
	}
	return f.logs[len(f.logs)-1], true
}

type fakeSource struct {
	payload *types.SubtitlePayload
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeSource) Fetch(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	f.calls.Add(1)
	if f.panics {
		panic("source exploded")
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload.Clone(), nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func samplePayload(source types.ProviderTag) *types.SubtitlePayload {
	return &types.SubtitlePayload{
		Captions: []types.CaptionSegment{
			{Start: 0, End: 1.5, Text: "Hello, world!", Words: []types.Word{{Text: "Hello", Punctuation: ","}, {Text: "world", Punctuation: "!"}}},
			{Start: 1.5, End: 3, Text: "second line", Words: []types.Word{{Text: "second"}, {Text: "line"}}},
		},
		CaptionData: types.CaptionData{Language: "en", Type: types.CaptionManual, Source: source},
	}
}

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	err    error
	closes atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.data[namespace+"/"+key]
	if !ok {
		return nil, types.ErrCacheMiss
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[namespace+"/"+key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.data, namespace+"/"+key)
	return nil
}

func (s *memStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var keys []string
	for k := range s.data {
		if ns, key, ok := strings.Cut(k, "/"); ok && ns == namespace {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *memStore) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
