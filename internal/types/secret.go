package types

import (
	"encoding/json"
	"log/slog"
)

const redacted = "[REDACTED]"

// SecretString holds a credential such as the remote auth token. Every
// printable form is redacted; only Value returns the raw string.
type SecretString struct {
	value string
}

func NewSecretString(value string) SecretString {
	return SecretString{value: value}
}

func (s SecretString) Value() string { return s.value }

func (s SecretString) IsEmpty() bool { return s.value == "" }

func (s SecretString) masked() string {
	if s.value == "" {
		return ""
	}
	return redacted
}

func (s SecretString) String() string { return s.masked() }

func (s SecretString) GoString() string { return s.masked() }

// LogValue keeps the secret out of structured logs.
func (s SecretString) LogValue() slog.Value { return slog.StringValue(s.masked()) }

func (s SecretString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.masked())
}

func (s *SecretString) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.value)
}

// UnmarshalText lets env and flag parsers populate a SecretString.
func (s *SecretString) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}

var _ slog.LogValuer = SecretString{}
