package subcache

import (
	"context"
	"time"

	"github.com/LavishGent/subtitlecache/internal/cache"
	"github.com/LavishGent/subtitlecache/internal/config"
)

// Manager resolves subtitles through the local, remote and source tiers.
type Manager interface {
	FetchSubtitles(ctx context.Context, videoID, title, channel string) *FetchResult
	Invalidate(ctx context.Context, videoID string) error
	Clear(ctx context.Context) error
	SourcePreference(ctx context.Context) (SourcePreference, error)
	SetSourcePreference(ctx context.Context, pref SourcePreference) error
	SetAuthToken(ctx context.Context, token SecretString) error
	Health(ctx context.Context) (*HealthMetrics, error)
	IsHealthy(ctx context.Context) bool
	Snapshot() MetricsSnapshot
	Close() error
	CloseWithTimeout(timeout time.Duration) error
}

// New creates a manager with the default configuration.
func New(opts ...ManagerOption) (Manager, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromConfig validates cfg and creates a manager from it.
func NewFromConfig(cfg *config.Config, opts ...ManagerOption) (Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	managerOpts := &ManagerOptions{}
	for _, opt := range opts {
		opt(managerOpts)
	}
	return cache.NewManager(cfg, managerOpts)
}

// NewFromFile creates a manager from a JSON config file with SUBCACHE_*
// environment overrides applied.
func NewFromFile(path string, opts ...ManagerOption) (Manager, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewOffline creates a manager that never contacts the remote cache service.
func NewOffline(opts ...ManagerOption) (Manager, error) {
	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	return NewFromConfig(cfg, opts...)
}

// Config returns a default configuration that can be modified before creating a manager.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}

var _ Manager = (*cache.Manager)(nil)
