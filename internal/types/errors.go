package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss           = errors.New("subcache: entry not found")
	ErrStoreUnavailable    = errors.New("subcache: store unavailable")
	ErrCircuitOpen         = errors.New("subcache: circuit breaker open")
	ErrClosed              = errors.New("subcache: manager closed")
	ErrQueueFull           = errors.New("subcache: background queue full")
	ErrBulkheadFull        = errors.New("subcache: bulkhead at capacity")
	ErrBulkheadTimeout     = errors.New("subcache: bulkhead timeout")
	ErrSerializationFailed = errors.New("subcache: serialization failed")
	ErrInvalidVideoID      = errors.New("subcache: invalid video id")
	ErrNoAuthToken         = errors.New("subcache: no auth token")
	ErrShutdownTimeout     = errors.New("subcache: shutdown timeout waiting for background operations")
)

type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if IsCacheMiss(err) || IsCircuitOpen(err) {
		return false
	}

	if errors.Is(err, ErrClosed) || errors.Is(err, ErrInvalidVideoID) || errors.Is(err, ErrNoAuthToken) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class() == ClassTransient
	}

	return true
}

// ProviderErrorType is the error_type reported by a subtitle provider.
type ProviderErrorType string

const (
	ErrTypeNoTranscript        ProviderErrorType = "no_transcript"
	ErrTypeTranscriptsDisabled ProviderErrorType = "transcripts_disabled"
	ErrTypeVideoUnavailable    ProviderErrorType = "video_unavailable"
	ErrTypeIPBlocked           ProviderErrorType = "youtube_ip_blocked"
	ErrTypeServerError         ProviderErrorType = "server_error"
	ErrTypeNetworkError        ProviderErrorType = "network_error"
	ErrTypeUnknown             ProviderErrorType = "unknown"
)

// ErrorClass groups provider errors by who can act on them.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	// ClassContent is user-side and not retryable: the video simply has no usable captions.
	ClassContent
	// ClassInfrastructure is operator-side: the provider itself is broken or blocked.
	ClassInfrastructure
	// ClassTransient covers network failures on the way to the provider.
	ClassTransient
)

func (c ErrorClass) String() string {
	switch c {
	case ClassContent:
		return "content"
	case ClassInfrastructure:
		return "infrastructure"
	case ClassTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ProviderError is a classified failure from the cloud provider or the local server.
type ProviderError struct {
	Type    ProviderErrorType
	Message string
	Source  ProviderTag
	Err     error
	// WarpActive is the cloud provider's report of whether its egress proxy was on.
	WarpActive bool
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Type)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Type, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Class maps the provider error type onto the error taxonomy.
func (e *ProviderError) Class() ErrorClass {
	switch e.Type {
	case ErrTypeNoTranscript, ErrTypeTranscriptsDisabled, ErrTypeVideoUnavailable:
		return ClassContent
	case ErrTypeIPBlocked, ErrTypeServerError:
		return ClassInfrastructure
	case ErrTypeNetworkError:
		return ClassTransient
	default:
		return ClassUnknown
	}
}

// UserMessage is the text shown to the viewer for this failure.
func (e *ProviderError) UserMessage() string {
	switch e.Type {
	case ErrTypeNoTranscript:
		return "No subtitles are available for this video."
	case ErrTypeTranscriptsDisabled:
		return "Subtitles are disabled for this video."
	case ErrTypeVideoUnavailable:
		return "This video is unavailable."
	case ErrTypeIPBlocked:
		return "The subtitle service is temporarily blocked. Please try again later or switch to the local server."
	case ErrTypeServerError:
		return "The subtitle service reported an error. Please try again later."
	case ErrTypeNetworkError:
		return "Could not reach the subtitle service. Check your connection."
	default:
		return "Failed to fetch subtitles."
	}
}

// NewProviderError builds a classified provider error.
func NewProviderError(source ProviderTag, typ ProviderErrorType, message string, err error) *ProviderError {
	if typ == "" {
		typ = ErrTypeUnknown
	}
	return &ProviderError{Type: typ, Message: message, Source: source, Err: err}
}

// AsProviderError unwraps err into a ProviderError when it carries one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// FetchErrorKind discriminates the caller-visible failures of FetchSubtitles.
type FetchErrorKind string

const (
	KindInvalidVideoID FetchErrorKind = "invalid_video_id"
	KindRateLimited    FetchErrorKind = "rate_limited"
	KindFetchFailed    FetchErrorKind = "fetch_failed"
	KindClosed         FetchErrorKind = "closed"
	KindInternal       FetchErrorKind = "internal"
	// KindCanceled means the caller's context ended before a result was ready.
	KindCanceled FetchErrorKind = "canceled"
)

// FetchError is the only error object that leaves the orchestrator.
//
//nolint:govet // Error struct - fields grouped by meaning
type FetchError struct {
	Kind     FetchErrorKind
	Message  string
	Reason   string
	WaitTime time.Duration
	Usage    *Usage
	Provider *ProviderError
}

func (e *FetchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	if e.Provider == nil {
		return nil
	}
	return e.Provider
}

// UserMessage renders the failure for display, including any wait duration.
func (e *FetchError) UserMessage() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("Rate limit reached. Please wait %s before loading new subtitles.", FormatWait(e.WaitTime))
	case KindFetchFailed:
		if e.Provider != nil {
			return e.Provider.UserMessage()
		}
		return "Failed to fetch subtitles."
	case KindInvalidVideoID:
		return "This video could not be identified."
	case KindCanceled:
		return "Loading subtitles was canceled."
	default:
		return "Something went wrong while loading subtitles."
	}
}

// FormatWait renders a wait duration in whole minutes, or seconds below one minute.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "a moment"
	}
	if d < time.Minute {
		secs := int(d.Round(time.Second) / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
