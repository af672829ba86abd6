package types

import "time"

// ManagerOptions holds collaborators and overrides for the subtitle manager.
// Any collaborator left nil is built from configuration.
type ManagerOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the metrics recorder.
	Metrics MetricsRecorder

	// Serializer encodes payloads for the cache tiers.
	Serializer Serializer

	// Store replaces the configured durable key-value store.
	Store KeyValueStore

	// Remote replaces the HTTP remote cache client.
	Remote RemoteCache

	// Source replaces the configured subtitle source.
	Source SubtitleSource

	// Preferences supplies the cloud/local selection read once per fetch.
	Preferences PreferenceReader

	// Tokens supplies the bearer token for the remote service.
	Tokens TokenProvider

	// Clock overrides time.Now, mainly for expiry tests.
	Clock func() time.Time

	// Language overrides the configured caption language.
	Language string

	// DisablePersistent turns off the durable tier.
	DisablePersistent bool

	// DisableResilience disables circuit breaker, retry and bulkhead.
	DisableResilience bool
}
