package subcache

import (
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

type ManagerOptions = types.ManagerOptions

type ManagerOption func(*ManagerOptions)

func WithLogger(logger Logger) ManagerOption {
	return func(o *ManagerOptions) {
		o.Logger = logger
	}
}

func WithMetrics(metrics MetricsRecorder) ManagerOption {
	return func(o *ManagerOptions) {
		o.Metrics = metrics
	}
}

func WithSerializer(serializer Serializer) ManagerOption {
	return func(o *ManagerOptions) {
		o.Serializer = serializer
	}
}

// WithStore replaces the configured SQLite or Redis store. The caller keeps
// ownership: closing the manager does not close store.
func WithStore(store KeyValueStore) ManagerOption {
	return func(o *ManagerOptions) {
		o.Store = store
	}
}

func WithRemote(remote RemoteCache) ManagerOption {
	return func(o *ManagerOptions) {
		o.Remote = remote
	}
}

func WithSource(source SubtitleSource) ManagerOption {
	return func(o *ManagerOptions) {
		o.Source = source
	}
}

func WithPreferences(prefs PreferenceReader) ManagerOption {
	return func(o *ManagerOptions) {
		o.Preferences = prefs
	}
}

func WithTokens(tokens TokenProvider) ManagerOption {
	return func(o *ManagerOptions) {
		o.Tokens = tokens
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(o *ManagerOptions) {
		o.Clock = now
	}
}

// WithLanguage sets the caption language, e.g. "en" or "pt-BR".
func WithLanguage(lang string) ManagerOption {
	return func(o *ManagerOptions) {
		o.Language = lang
	}
}

func WithoutPersistent() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisablePersistent = true
	}
}

func WithoutResilience() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableResilience = true
	}
}
