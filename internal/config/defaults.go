package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Volatile: VolatileConfig{
			Enabled:       true,
			MaxEntries:    3,
			MaxEntrySize:  64 * 1024,
			HardMaxSizeMB: 64,
		},
		Persistent: PersistentConfig{
			Enabled:     true,
			Expiry:      7 * 24 * time.Hour,
			OpenTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite: SQLiteConfig{
				Path:        "data/subtitles.db",
				BusyTimeout: 5 * time.Second,
			},
			Redis: RedisConfig{
				Address:      "localhost:6379",
				Password:     SecretString{},
				DB:           0,
				KeyPrefix:    "subcache:",
				PoolSize:     10,
				MinIdleConns: 1,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				PoolTimeout:  4 * time.Second,

				HealthCheckInterval: 10 * time.Second,
			},
		},
		Remote: RemoteConfig{
			Enabled:   true,
			BaseURL:   "http://localhost:8787",
			CheckPath: "/api/subtitles/check",
			StorePath: "/api/subtitles/store",
			LogPath:   "/api/subtitles/log",
			Timeout:   10 * time.Second,
		},
		Source: SourceConfig{
			CloudURL:          "http://localhost:8000",
			LocalURL:          "http://127.0.0.1:5000",
			Timeout:           60 * time.Second,
			Language:          "en",
			DefaultPreference: "cloud",
		},
		Background: BackgroundConfig{
			Workers:    2,
			MaxPending: 100,
			OpTimeout:  10 * time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OpenDuration:     30 * time.Second,
		},
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    2,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  16,
			MaxQueue:       32,
			AcquireTimeout: 500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 30 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "subcache",
				Tags:      []string{},
			},
		},
		VideoID: VideoIDConfig{
			MaxLength:    64,
			AllowedPunct: "-_",
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
// The durable store lives in memory and all resilience features are off.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Store.SQLite.Path = ":memory:"
	cfg.Persistent.OpenTimeout = 1 * time.Second
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Source.Timeout = 2 * time.Second
	cfg.Background = BackgroundConfig{
		Workers:    1,
		MaxPending: 16,
		OpTimeout:  1 * time.Second,
	}
	cfg.CircuitBreaker.Enabled = false
	cfg.Retry = RetryConfig{
		Enabled:        false,
		MaxAttempts:    1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}
	cfg.Bulkhead.Enabled = false
	cfg.Metrics = MetricsConfig{
		Enabled:         false,
		PublishInterval: 1 * time.Second,
	}
	return cfg
}

// ForTestingWithRedis returns a test config backed by Redis.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Store.Backend = BackendRedis
	cfg.Store.Redis.Address = addr
	cfg.Store.Redis.KeyPrefix = "subcache:test:"
	cfg.Store.Redis.DialTimeout = 1 * time.Second
	cfg.Store.Redis.HealthCheckInterval = 0
	return cfg
}
