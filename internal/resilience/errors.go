package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/LavishGent/subtitlecache/internal/types"
)

var (
	ErrCircuitOpen     = types.ErrCircuitOpen
	ErrBulkheadFull    = types.ErrBulkheadFull
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

// StatusError is a non-success HTTP response from a remote endpoint.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsClientError reports whether the response was a 4xx.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

// IsBulkheadError returns true if the error is a bulkhead error.
func IsBulkheadError(err error) bool {
	return errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout)
}

// IsFailure reports whether err says something about the health of the
// downstream dependency. Content errors, 4xx responses and caller
// cancellation do not trip the breaker.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.Class() == types.ClassContent {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) && se.IsClientError() {
		return false
	}

	return true
}

// IsRetryable determines if an error is transient and worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, types.ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pe *types.ProviderError
	if errors.As(err, &pe) {
		return pe.Class() == types.ClassTransient
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusRequestTimeout {
			return true
		}
		return se.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	// Unclassified errors get another attempt.
	return true
}
