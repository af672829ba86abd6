package subcache

import (
	"github.com/LavishGent/subtitlecache/internal/types"
)

type (
	// FetchResult is the outcome of FetchSubtitles. Error is nil on success.
	FetchResult = types.FetchResult
	// SubtitlePayload is the normalized caption data shared by every tier.
	SubtitlePayload = types.SubtitlePayload
	// CaptionSegment is one timed caption line.
	CaptionSegment = types.CaptionSegment
	// CaptionData describes language, type and provider of a payload.
	CaptionData = types.CaptionData
	// Word is a single token of a caption line.
	Word = types.Word
	// ResultSource is the provenance reported for a fetch.
	ResultSource = types.ResultSource
	// SourcePreference selects the cloud or local provider.
	SourcePreference = types.SourcePreference
	// ProviderTag names the provider that produced a payload.
	ProviderTag = types.ProviderTag
	// CaptionType is manual or auto-generated.
	CaptionType = types.CaptionType
	// QuotaDecision is the remote service's cache-and-limits answer.
	QuotaDecision = types.QuotaDecision
	// Usage holds the burst, hourly and daily windows.
	Usage = types.Usage
	// UsageWindow is one "used/total" window.
	UsageWindow = types.UsageWindow
	// FetchLog is one analytics record.
	FetchLog = types.FetchLog
	// SecretString keeps tokens out of logs.
	SecretString = types.SecretString

	KeyValueStore    = types.KeyValueStore
	RemoteCache      = types.RemoteCache
	SubtitleSource   = types.SubtitleSource
	PreferenceReader = types.PreferenceReader
	TokenProvider    = types.TokenProvider
	Serializer       = types.Serializer
	MetricsRecorder  = types.MetricsRecorder
	Logger           = types.Logger
	Publisher        = types.Publisher
)

const (
	SourceMemory      = types.SourceMemory
	SourceLocalCache  = types.SourceLocalCache
	SourceServerCache = types.SourceServerCache
	// SourceCloud and SourceLocal are reported for fresh fetches.
	SourceCloud = ResultSource(types.ProviderCloud)
	SourceLocal = ResultSource(types.ProviderLocal)
)

const (
	PreferenceCloud = types.PreferenceCloud
	PreferenceLocal = types.PreferenceLocal
)

const (
	ProviderCloud = types.ProviderCloud
	ProviderLocal = types.ProviderLocal
)

const (
	CaptionManual        = types.CaptionManual
	CaptionAutoGenerated = types.CaptionAutoGenerated
)

// ParseSourcePreference parses "cloud" or "local".
func ParseSourcePreference(s string) (SourcePreference, bool) {
	return types.ParseSourcePreference(s)
}

// NewSecretString wraps a token.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// FailOpenDecision is the decision used when the quota service is unreachable.
func FailOpenDecision() QuotaDecision {
	return types.FailOpenDecision()
}
