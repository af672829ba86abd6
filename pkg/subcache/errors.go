package subcache

import (
	"github.com/LavishGent/subtitlecache/internal/types"
)

// CacheError represents a tier operation error.
type CacheError = types.CacheError

// FetchError is the failure carried in FetchResult.Error.
type FetchError = types.FetchError

// FetchErrorKind discriminates FetchError values.
type FetchErrorKind = types.FetchErrorKind

// ProviderError is a classified subtitle provider failure.
type ProviderError = types.ProviderError

// ProviderErrorType is the provider's error_type string.
type ProviderErrorType = types.ProviderErrorType

const (
	KindInvalidVideoID = types.KindInvalidVideoID
	KindRateLimited    = types.KindRateLimited
	KindFetchFailed    = types.KindFetchFailed
	KindClosed         = types.KindClosed
	KindInternal       = types.KindInternal
	KindCanceled       = types.KindCanceled
)

const (
	ErrTypeNoTranscript        = types.ErrTypeNoTranscript
	ErrTypeTranscriptsDisabled = types.ErrTypeTranscriptsDisabled
	ErrTypeVideoUnavailable    = types.ErrTypeVideoUnavailable
	ErrTypeIPBlocked           = types.ErrTypeIPBlocked
	ErrTypeServerError         = types.ErrTypeServerError
	ErrTypeNetworkError        = types.ErrTypeNetworkError
	ErrTypeUnknown             = types.ErrTypeUnknown
)

var (
	// ErrCacheMiss indicates that a requested entry was not found.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrStoreUnavailable indicates that the durable store could not be opened.
	ErrStoreUnavailable = types.ErrStoreUnavailable
	// ErrCircuitOpen indicates that a circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrClosed indicates that the manager has been closed.
	ErrClosed = types.ErrClosed
	// ErrInvalidVideoID indicates a malformed video identifier.
	ErrInvalidVideoID = types.ErrInvalidVideoID
	// ErrShutdownTimeout indicates background work outlived Close.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// NewProviderError creates a classified provider error.
func NewProviderError(source ProviderTag, typ ProviderErrorType, message string, err error) *ProviderError {
	return types.NewProviderError(source, typ, message, err)
}

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// IsInvalidVideoID returns true if the error came from video ID validation.
func IsInvalidVideoID(err error) bool {
	return types.IsInvalidVideoID(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// ValidateVideoID checks id against the default rules.
func ValidateVideoID(id string) error {
	return types.ValidateVideoID(id)
}
