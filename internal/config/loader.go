package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// EnvPrefix is prepended to every environment override, e.g. SUBCACHE_REMOTE_BASE_URL.
const EnvPrefix = "SUBCACHE_"

// Load reads a JSON config file over the defaults. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv is Load followed by environment overrides. Validation runs
// again on the merged result.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// agentEnv holds the standard DataDog agent variables. They take precedence
// over the prefixed SUBCACHE_METRICS_DATADOG_* ones.
type agentEnv struct {
	Host    string `env:"DD_AGENT_HOST"`
	Port    int    `env:"DD_DOGSTATSD_PORT"`
	Service string `env:"DD_SERVICE"`
	Env     string `env:"DD_ENV"`
	Version string `env:"DD_VERSION"`
}

func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	var agent agentEnv
	if err := env.Parse(&agent); err != nil {
		return fmt.Errorf("parse datadog environment: %w", err)
	}
	dd := &cfg.Metrics.DataDog
	if agent.Host != "" {
		dd.AgentHost = agent.Host
		dd.Enabled = true
	}
	if agent.Port != 0 {
		dd.Port = agent.Port
	}
	if agent.Service != "" {
		dd.Prefix = agent.Service
	}
	if agent.Env != "" {
		dd.Tags = append(dd.Tags, "env:"+agent.Env)
	}
	if agent.Version != "" {
		dd.Tags = append(dd.Tags, "version:"+agent.Version)
	}
	return nil
}

// Validate reports every problem in the configuration at once. Sections that
// are disabled are not checked.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if c.Volatile.Enabled {
		check(c.Volatile.MaxEntries > 0, "volatile.maxEntries must be positive")
		check(c.Volatile.HardMaxSizeMB >= 0, "volatile.hardMaxSizeMB must not be negative")
	}

	if c.Persistent.Enabled {
		check(c.Persistent.Expiry > 0, "persistent.expiry must be positive")
		switch c.Store.Backend {
		case BackendSQLite:
			check(c.Store.SQLite.Path != "", "store.sqlite.path is required for the sqlite backend")
		case BackendRedis:
			check(c.Store.Redis.Address != "", "store.redis.address is required for the redis backend")
			check(c.Store.Redis.PoolSize > 0, "store.redis.poolSize must be positive")
		default:
			check(false, "store.backend must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Store.Backend)
		}
	}

	if c.Remote.Enabled {
		check(c.Remote.BaseURL != "", "remote.baseURL is required when remote is enabled")
		check(c.Remote.CheckPath != "" && c.Remote.StorePath != "" && c.Remote.LogPath != "",
			"remote.checkPath, remote.storePath and remote.logPath are required")
	}

	check(c.Source.CloudURL != "" || c.Source.LocalURL != "", "at least one of source.cloudURL or source.localURL is required")
	if c.Source.DefaultPreference != "" {
		_, ok := types.ParseSourcePreference(c.Source.DefaultPreference)
		check(ok, "source.defaultPreference must be %q or %q, got %q",
			types.PreferenceCloud, types.PreferenceLocal, c.Source.DefaultPreference)
	}

	check(c.Background.MaxPending > 0, "background.maxPending must be positive")
	check(c.Background.Workers > 0, "background.workers must be positive")

	if cb := c.CircuitBreaker; cb.Enabled {
		check(cb.FailureThreshold > 0, "circuitBreaker.failureThreshold must be positive")
		check(cb.OpenDuration > 0, "circuitBreaker.openDuration must be positive")
		check(cb.SuccessThreshold >= 0, "circuitBreaker.successThreshold must not be negative")
		check(cb.FailureWindow >= 0, "circuitBreaker.failureWindow must not be negative")
	}
	if c.Retry.Enabled {
		check(c.Retry.MaxAttempts > 0, "retry.maxAttempts must be positive")
	}
	if c.Bulkhead.Enabled {
		check(c.Bulkhead.MaxConcurrent > 0, "bulkhead.maxConcurrent must be positive")
	}

	return errors.Join(errs...)
}
