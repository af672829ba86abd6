// Package source produces fresh subtitles from the provider the user selected:
// the cloud transcript provider or the local extraction server. There is no
// fallback from one to the other.
package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Fetcher dispatches to the cloud or local client according to the stored
// preference, which is read once per call.
type Fetcher struct {
	prefs    types.PreferenceReader
	cloud    types.SubtitleSource
	local    types.SubtitleSource
	fallback types.SourcePreference
	metrics  types.MetricsRecorder
	logger   *slog.Logger
}

// NewFetcher creates a fetcher. fallback is used when the preference cannot be read.
func NewFetcher(prefs types.PreferenceReader, cloud, local types.SubtitleSource, fallback types.SourcePreference, recorder types.MetricsRecorder, logger *slog.Logger) *Fetcher {
	if recorder == nil {
		recorder = metrics.NewNoOpTracker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, ok := types.ParseSourcePreference(string(fallback)); !ok {
		fallback = types.PreferenceCloud
	}
	return &Fetcher{
		prefs:    prefs,
		cloud:    cloud,
		local:    local,
		fallback: fallback,
		metrics:  recorder,
		logger:   logger.With("component", "source-fetcher"),
	}
}

// Fetch returns a normalized payload or a *types.ProviderError.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	pref := f.preference(ctx)

	src, tag := f.cloud, types.ProviderCloud
	if pref == types.PreferenceLocal {
		src, tag = f.local, types.ProviderLocal
	}

	start := time.Now()
	payload, err := src.Fetch(ctx, videoID)
	f.metrics.RecordFetch(string(tag), err == nil, time.Since(start))
	if err != nil {
		pe, ok := types.AsProviderError(err)
		if !ok {
			pe = types.NewProviderError(tag, types.ErrTypeUnknown, "", err)
		}
		f.logFailure(videoID, pe)
		return nil, pe
	}

	f.logger.Debug("Fetched subtitles from source",
		"video_id", videoID,
		"source", tag,
		"type", payload.CaptionData.Type,
		"segments", len(payload.Captions),
	)
	return payload, nil
}

func (f *Fetcher) preference(ctx context.Context) types.SourcePreference {
	if f.prefs == nil {
		return f.fallback
	}
	pref, err := f.prefs.Preference(ctx)
	if err != nil {
		f.logger.Warn("Could not read source preference, using default", "default", f.fallback, "error", err)
		return f.fallback
	}
	return pref
}

func (f *Fetcher) logFailure(videoID string, pe *types.ProviderError) {
	attrs := []any{
		"video_id", videoID,
		"source", pe.Source,
		"error_type", pe.Type,
		"error", pe.Message,
	}
	switch pe.Class() {
	case types.ClassContent:
		f.logger.Info("No usable subtitles for video", attrs...)
	case types.ClassInfrastructure:
		f.logger.Error("Subtitle provider failure", append(attrs, "warp_active", pe.WarpActive)...)
	default:
		f.logger.Warn("Subtitle fetch failed", append(attrs, "cause", pe.Err)...)
	}
}

var _ types.SubtitleSource = (*Fetcher)(nil)
