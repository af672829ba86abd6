package source

import (
	"context"
	"errors"
	"testing"

	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/types"
)

type stubSource struct {
	payload *types.SubtitlePayload
	err     error
	calls   int
}

func (s *stubSource) Fetch(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	s.calls++
	return s.payload, s.err
}

type stubPrefs struct {
	pref  types.SourcePreference
	err   error
	reads int
}

func (s *stubPrefs) Preference(ctx context.Context) (types.SourcePreference, error) {
	s.reads++
	return s.pref, s.err
}

func okPayload(tag types.ProviderTag) *types.SubtitlePayload {
	return &types.SubtitlePayload{
		Captions:    []types.CaptionSegment{{Start: 0, End: 1, Text: "hi", Words: []types.Word{{Text: "hi"}}}},
		CaptionData: types.CaptionData{Language: "en", Type: types.CaptionManual, Source: tag},
	}
}

func TestFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches on preference", func(t *testing.T) {
		tests := []struct {
			pref      types.SourcePreference
			wantCloud int
			wantLocal int
		}{
			{types.PreferenceCloud, 1, 0},
			{types.PreferenceLocal, 0, 1},
		}
		for _, tt := range tests {
			t.Run(string(tt.pref), func(t *testing.T) {
				cloud := &stubSource{payload: okPayload(types.ProviderCloud)}
				local := &stubSource{payload: okPayload(types.ProviderLocal)}
				prefs := &stubPrefs{pref: tt.pref}

				f := NewFetcher(prefs, cloud, local, types.PreferenceCloud, nil, nil)
				if _, err := f.Fetch(ctx, "abc123"); err != nil {
					t.Fatalf("Fetch() error = %v", err)
				}
				if cloud.calls != tt.wantCloud || local.calls != tt.wantLocal {
					t.Errorf("calls cloud=%d local=%d, want %d/%d", cloud.calls, local.calls, tt.wantCloud, tt.wantLocal)
				}
				if prefs.reads != 1 {
					t.Errorf("preference reads = %d, want 1", prefs.reads)
				}
			})
		}
	})

	t.Run("no fallback to the other source", func(t *testing.T) {
		cloud := &stubSource{err: types.NewProviderError(types.ProviderCloud, types.ErrTypeIPBlocked, "blocked", nil)}
		local := &stubSource{payload: okPayload(types.ProviderLocal)}

		f := NewFetcher(&stubPrefs{pref: types.PreferenceCloud}, cloud, local, types.PreferenceCloud, nil, nil)
		_, err := f.Fetch(ctx, "abc123")

		pe, ok := types.AsProviderError(err)
		if !ok || pe.Type != types.ErrTypeIPBlocked {
			t.Errorf("error = %v, want youtube_ip_blocked", err)
		}
		if local.calls != 0 {
			t.Errorf("local calls = %d, want 0", local.calls)
		}
	})

	t.Run("unreadable preference uses the default", func(t *testing.T) {
		cloud := &stubSource{payload: okPayload(types.ProviderCloud)}
		local := &stubSource{payload: okPayload(types.ProviderLocal)}

		f := NewFetcher(&stubPrefs{err: errors.New("store down")}, cloud, local, types.PreferenceLocal, nil, nil)
		if _, err := f.Fetch(ctx, "abc123"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if local.calls != 1 || cloud.calls != 0 {
			t.Errorf("calls cloud=%d local=%d, want local only", cloud.calls, local.calls)
		}
	})

	t.Run("plain errors are wrapped as unknown", func(t *testing.T) {
		cloud := &stubSource{err: errors.New("boom")}

		f := NewFetcher(nil, cloud, &stubSource{}, types.PreferenceCloud, nil, nil)
		_, err := f.Fetch(ctx, "abc123")

		pe, ok := types.AsProviderError(err)
		if !ok || pe.Type != types.ErrTypeUnknown || pe.Source != types.ProviderCloud {
			t.Errorf("error = %v, want unknown cloud error", err)
		}
	})

	t.Run("records fetch metrics", func(t *testing.T) {
		tracker := metrics.NewTracker()
		cloud := &stubSource{payload: okPayload(types.ProviderCloud)}
		local := &stubSource{err: types.NewProviderError(types.ProviderLocal, types.ErrTypeNoTranscript, "", nil)}
		prefs := &stubPrefs{pref: types.PreferenceCloud}

		f := NewFetcher(prefs, cloud, local, types.PreferenceCloud, tracker, nil)
		_, _ = f.Fetch(ctx, "abc123")
		prefs.pref = types.PreferenceLocal
		_, _ = f.Fetch(ctx, "abc123")

		snap := tracker.Snapshot()
		if snap.SourceFetches != 2 || snap.SourceFailures != 1 {
			t.Errorf("fetches=%d failures=%d, want 2/1", snap.SourceFetches, snap.SourceFailures)
		}
	})
}
