package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// VideoIDValidationConfig contains configuration for video identifier validation.
type VideoIDValidationConfig struct {
	ReservedPatterns []string
	MaxLength        int
	// AllowedPunct lists the non-alphanumeric runes accepted in an identifier.
	AllowedPunct string
}

// DefaultVideoIDValidationConfig returns a VideoIDValidationConfig with default values.
func DefaultVideoIDValidationConfig() VideoIDValidationConfig {
	return VideoIDValidationConfig{
		MaxLength:        64,
		AllowedPunct:     "-_",
		ReservedPatterns: nil,
	}
}

// VideoIDValidator validates video identifiers before any tier is consulted.
type VideoIDValidator struct {
	config VideoIDValidationConfig
}

// NewVideoIDValidator creates a new VideoIDValidator with the given configuration.
func NewVideoIDValidator(config VideoIDValidationConfig) *VideoIDValidator {
	return &VideoIDValidator{config: config}
}

// Validate checks if a video identifier is valid according to the configured rules.
func (v *VideoIDValidator) Validate(id string) error {
	if id == "" {
		return fmt.Errorf("%w: video id cannot be empty", ErrInvalidVideoID)
	}

	if v.config.MaxLength > 0 && len(id) > v.config.MaxLength {
		return fmt.Errorf("%w: video id length %d exceeds maximum %d bytes",
			ErrInvalidVideoID, len(id), v.config.MaxLength)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: video id contains invalid UTF-8", ErrInvalidVideoID)
	}

	for i, r := range id {
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: video id contains control character at position %d", ErrInvalidVideoID, i)
		}
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: video id contains whitespace at position %d", ErrInvalidVideoID, i)
		}
		if r > unicode.MaxASCII {
			return fmt.Errorf("%w: video id contains non-ASCII character at position %d", ErrInvalidVideoID, i)
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(v.config.AllowedPunct, r) {
			return fmt.Errorf("%w: video id contains %q at position %d", ErrInvalidVideoID, r, i)
		}
	}

	for _, pattern := range v.config.ReservedPatterns {
		if strings.Contains(id, pattern) {
			return fmt.Errorf("%w: video id contains reserved pattern %q", ErrInvalidVideoID, pattern)
		}
	}

	return nil
}

// ValidateVideoID validates an identifier using the default validator.
func ValidateVideoID(id string) error {
	return DefaultVideoIDValidator.Validate(id)
}

// DefaultVideoIDValidator is the default validator instance.
var DefaultVideoIDValidator = NewVideoIDValidator(DefaultVideoIDValidationConfig())

// IsInvalidVideoID returns true if the error indicates an invalid video id.
func IsInvalidVideoID(err error) bool {
	return errors.Is(err, ErrInvalidVideoID)
}
