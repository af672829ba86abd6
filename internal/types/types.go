// Package types provides shared types for the subtitlecache engine.
// This package breaks import cycles between pkg/subcache and the internal layers.
package types

import (
	"strconv"
	"strings"
	"time"
)

// ProviderTag identifies the upstream that produced a payload.
type ProviderTag string

const (
	ProviderCloud ProviderTag = "cloud-provider"
	ProviderLocal ProviderTag = "local-server"
)

// CaptionType distinguishes human-authored captions from machine-generated ones.
type CaptionType string

const (
	CaptionManual        CaptionType = "manual"
	CaptionAutoGenerated CaptionType = "auto-generated"
)

// SourcePreference is the user's choice of subtitle source.
type SourcePreference string

const (
	PreferenceCloud SourcePreference = "cloud"
	PreferenceLocal SourcePreference = "local"
)

// ParseSourcePreference parses a stored preference string.
func ParseSourcePreference(s string) (SourcePreference, bool) {
	switch SourcePreference(strings.ToLower(strings.TrimSpace(s))) {
	case PreferenceCloud:
		return PreferenceCloud, true
	case PreferenceLocal:
		return PreferenceLocal, true
	default:
		return "", false
	}
}

func (p SourcePreference) String() string {
	return string(p)
}

// ResultSource is the provenance reported for a resolved fetch.
type ResultSource string

const (
	SourceMemory      ResultSource = "memory"
	SourceLocalCache  ResultSource = "local_cache"
	SourceServerCache ResultSource = "server_cache"
)

// SourceFromProvider converts a provider tag into a result provenance.
func SourceFromProvider(tag ProviderTag) ResultSource {
	return ResultSource(tag)
}

// Word is a single clickable token of a caption line.
type Word struct {
	Text        string `json:"text"`
	Punctuation string `json:"punctuation"`
}

// CaptionSegment is one timed caption line. Times are in seconds.
type CaptionSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// CaptionData describes where a payload came from.
type CaptionData struct {
	Language string      `json:"language"`
	Type     CaptionType `json:"type"`
	Source   ProviderTag `json:"source"`
}

// SubtitlePayload is the unit every tier stores.
type SubtitlePayload struct {
	Captions    []CaptionSegment `json:"captions"`
	CaptionData CaptionData      `json:"captionData"`
}

// Clone returns a deep copy so tiers never share slices.
func (p *SubtitlePayload) Clone() *SubtitlePayload {
	if p == nil {
		return nil
	}
	out := &SubtitlePayload{
		CaptionData: p.CaptionData,
	}
	if p.Captions != nil {
		out.Captions = make([]CaptionSegment, len(p.Captions))
		for i, seg := range p.Captions {
			out.Captions[i] = seg
			if seg.Words != nil {
				out.Captions[i].Words = append([]Word(nil), seg.Words...)
			}
		}
	}
	return out
}

// VolatileCacheEntry is what the in-process tier holds per video.
type VolatileCacheEntry struct {
	VideoID   string          `json:"videoId"`
	Payload   SubtitlePayload `json:"payload"`
	WrittenAt time.Time       `json:"writtenAt"`
}

// Age returns how long ago the entry was written.
func (e *VolatileCacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.WrittenAt)
}

// PersistentCacheEntry is the durable row layout, keyed by VideoID.
type PersistentCacheEntry struct {
	VideoID     string           `json:"videoId"`
	Captions    []CaptionSegment `json:"captions"`
	CaptionData CaptionData      `json:"captionData"`
	// CachedAt is unix milliseconds.
	CachedAt int64 `json:"cachedAt"`
}

// WrittenAt returns CachedAt as a time.
func (e *PersistentCacheEntry) WrittenAt() time.Time {
	return time.UnixMilli(e.CachedAt)
}

// Payload returns a copy of the stored payload.
func (e *PersistentCacheEntry) Payload() *SubtitlePayload {
	p := SubtitlePayload{Captions: e.Captions, CaptionData: e.CaptionData}
	return p.Clone()
}

// PersistentHit is a fresh persistent entry together with its age.
type PersistentHit struct {
	Entry PersistentCacheEntry
	Age   time.Duration
}

// UsageWindow is one "used/total" counter reported by the quota service.
type UsageWindow struct {
	Raw   string
	Used  int
	Total int
}

// ParseUsageWindow parses "used/total". Unparseable halves stay zero.
func ParseUsageWindow(s string) UsageWindow {
	w := UsageWindow{Raw: s}
	used, total, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return w
	}
	w.Used, _ = strconv.Atoi(strings.TrimSpace(used))
	w.Total, _ = strconv.Atoi(strings.TrimSpace(total))
	return w
}

// Remaining returns how many fetches are left in the window.
func (w UsageWindow) Remaining() int {
	if w.Total <= w.Used {
		return 0
	}
	return w.Total - w.Used
}

func (w UsageWindow) String() string {
	if w.Raw != "" {
		return w.Raw
	}
	return strconv.Itoa(w.Used) + "/" + strconv.Itoa(w.Total)
}

// Usage holds the three nested rate-limit windows.
type Usage struct {
	Burst  UsageWindow
	Hourly UsageWindow
	Daily  UsageWindow
}

// QuotaDecision is the remote service's answer to a cache-and-limits check.
// It is produced fresh per call and never cached locally.
type QuotaDecision struct {
	Subtitles *SubtitlePayload
	Usage     *Usage
	Reason    string
	WaitTime  time.Duration
	HitCount  int
	Cached    bool
	Allowed   bool
}

// FailOpenDecision is returned whenever the quota service cannot be consulted.
func FailOpenDecision() QuotaDecision {
	return QuotaDecision{Cached: false, Allowed: true}
}

// FetchLog is one analytics record sent to the remote service.
type FetchLog struct {
	VideoID    string
	VideoTitle string
	Source     string
	Success    bool
	FromCache  bool
}

// FetchResult is the discriminated outcome of FetchSubtitles.
// Callers branch on Error being nil.
//
//nolint:govet // Result struct - field order follows the response shape
type FetchResult struct {
	VideoID    string
	Payload    *SubtitlePayload
	Source     ResultSource
	Cached     bool
	AgeSeconds int64
	AgeMinutes int64
	HitCount   int
	Elapsed    time.Duration
	Error      *FetchError
}

// OK reports whether the fetch produced subtitles.
func (r *FetchResult) OK() bool {
	return r != nil && r.Error == nil
}

// VolatileCacheStats are counters of the in-process tier.
type VolatileCacheStats struct {
	Hits      int64
	Misses    int64
	Puts      int64
	Deletes   int64
	Evictions int64
}

// PersistentCacheStats are counters of the durable tier.
type PersistentCacheStats struct {
	Hits        int64
	Misses      int64
	Expired     int64
	Puts        int64
	WriteErrors int64
}
