package types

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultVideoIDValidationConfig(t *testing.T) {
	cfg := DefaultVideoIDValidationConfig()

	if cfg.MaxLength != 64 {
		t.Errorf("MaxLength = %d, want 64", cfg.MaxLength)
	}
	if cfg.AllowedPunct != "-_" {
		t.Errorf("AllowedPunct = %q, want -_", cfg.AllowedPunct)
	}
	if cfg.ReservedPatterns != nil {
		t.Error("ReservedPatterns should be nil by default")
	}
}

func TestVideoIDValidator_Validate(t *testing.T) {
	t.Run("valid ids pass validation", func(t *testing.T) {
		v := NewVideoIDValidator(DefaultVideoIDValidationConfig())

		validIDs := []string{
			"abc123",
			"dQw4w9WgXcQ",
			"a-b_c",
			"A",
			strings.Repeat("a", 64),
		}

		for _, id := range validIDs {
			if err := v.Validate(id); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", id, err)
			}
		}
	})

	t.Run("invalid ids rejected", func(t *testing.T) {
		v := NewVideoIDValidator(DefaultVideoIDValidationConfig())

		invalidIDs := []string{
			"",
			strings.Repeat("a", 65),
			"abc 123",
			"abc\t123",
			"abc\x00",
			"abc\x7f",
			"abc/../etc",
			"abc:123",
			"vidéo",
			string([]byte{0xff, 0xfe}),
		}

		for _, id := range invalidIDs {
			err := v.Validate(id)
			if err == nil {
				t.Errorf("Validate(%q) = nil, want error", id)
				continue
			}
			if !errors.Is(err, ErrInvalidVideoID) {
				t.Errorf("Validate(%q) error should wrap ErrInvalidVideoID, got: %v", id, err)
			}
		}
	})

	t.Run("length check disabled when zero", func(t *testing.T) {
		cfg := DefaultVideoIDValidationConfig()
		cfg.MaxLength = 0
		v := NewVideoIDValidator(cfg)

		if err := v.Validate(strings.Repeat("a", 500)); err != nil {
			t.Errorf("Validate(long id) = %v, want nil when MaxLength=0", err)
		}
	})

	t.Run("extra punctuation allowed when configured", func(t *testing.T) {
		cfg := DefaultVideoIDValidationConfig()
		cfg.AllowedPunct = "-_."
		v := NewVideoIDValidator(cfg)

		if err := v.Validate("clip.001"); err != nil {
			t.Errorf("Validate(clip.001) = %v, want nil", err)
		}
	})

	t.Run("reserved patterns rejected", func(t *testing.T) {
		cfg := DefaultVideoIDValidationConfig()
		cfg.ReservedPatterns = []string{"__"}
		v := NewVideoIDValidator(cfg)

		err := v.Validate("abc__def")
		if err == nil {
			t.Fatal("Validate(abc__def) = nil, want error")
		}
		if !strings.Contains(err.Error(), "reserved pattern") {
			t.Errorf("error should mention reserved pattern, got: %v", err)
		}
	})
}

func TestValidateVideoID(t *testing.T) {
	if err := ValidateVideoID("abc123"); err != nil {
		t.Errorf("ValidateVideoID(abc123) = %v, want nil", err)
	}
	if err := ValidateVideoID(""); !IsInvalidVideoID(err) {
		t.Errorf("ValidateVideoID(\"\") = %v, want invalid video id", err)
	}
	if IsInvalidVideoID(nil) {
		t.Error("IsInvalidVideoID(nil) = true")
	}
}
