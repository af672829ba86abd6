// Package config provides configuration management for subtitlecache.
package config

import (
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config contains all configuration for the subtitle manager.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Volatile       VolatileConfig       `json:"volatile" envPrefix:"VOLATILE_"`
	Persistent     PersistentConfig     `json:"persistent" envPrefix:"PERSISTENT_"`
	Store          StoreConfig          `json:"store" envPrefix:"STORE_"`
	Remote         RemoteConfig         `json:"remote" envPrefix:"REMOTE_"`
	Source         SourceConfig         `json:"source" envPrefix:"SOURCE_"`
	Background     BackgroundConfig     `json:"background" envPrefix:"BACKGROUND_"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" envPrefix:"CIRCUIT_BREAKER_"`
	Retry          RetryConfig          `json:"retry" envPrefix:"RETRY_"`
	Bulkhead       BulkheadConfig       `json:"bulkhead" envPrefix:"BULKHEAD_"`
	Metrics        MetricsConfig        `json:"metrics" envPrefix:"METRICS_"`
	VideoID        VideoIDConfig        `json:"videoId" envPrefix:"VIDEO_ID_"`
}

// VideoIDConfig contains configuration for video identifier validation.
type VideoIDConfig struct {
	ReservedPatterns []string `json:"reservedPatterns" env:"RESERVED_PATTERNS"`
	AllowedPunct     string   `json:"allowedPunct" env:"ALLOWED_PUNCT"`
	MaxLength        int      `json:"maxLength" env:"MAX_LENGTH"`
}

// ToTypesConfig converts this config to a types.VideoIDValidationConfig.
func (c VideoIDConfig) ToTypesConfig() types.VideoIDValidationConfig {
	return types.VideoIDValidationConfig{
		MaxLength:        c.MaxLength,
		AllowedPunct:     c.AllowedPunct,
		ReservedPatterns: c.ReservedPatterns,
	}
}

// VolatileConfig contains configuration for the in-process tier.
type VolatileConfig struct {
	// MaxEntries is the insertion-order bound; the oldest video is evicted past it.
	MaxEntries    int  `json:"maxEntries" env:"MAX_ENTRIES"`
	MaxEntrySize  int  `json:"maxEntrySize" env:"MAX_ENTRY_SIZE"`
	HardMaxSizeMB int  `json:"hardMaxSizeMB" env:"HARD_MAX_SIZE_MB"`
	Enabled       bool `json:"enabled" env:"ENABLED"`
}

// PersistentConfig contains configuration for the durable tier.
type PersistentConfig struct {
	Expiry      time.Duration `json:"expiry" env:"EXPIRY"`
	OpenTimeout time.Duration `json:"openTimeout" env:"OPEN_TIMEOUT"`
	Enabled     bool          `json:"enabled" env:"ENABLED"`
}

// StoreConfig selects and configures the durable key-value store.
type StoreConfig struct {
	Backend string       `json:"backend" env:"BACKEND"`
	SQLite  SQLiteConfig `json:"sqlite" envPrefix:"SQLITE_"`
	Redis   RedisConfig  `json:"redis" envPrefix:"REDIS_"`
}

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	Path        string        `json:"path" env:"PATH"`
	BusyTimeout time.Duration `json:"busyTimeout" env:"BUSY_TIMEOUT"`
}

// RedisConfig contains configuration for the Redis store.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout  time.Duration `json:"dialTimeout" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"writeTimeout" env:"WRITE_TIMEOUT"`
	PoolTimeout  time.Duration `json:"poolTimeout" env:"POOL_TIMEOUT"`
	// HealthCheckInterval controls how often a disconnected store is pinged. Zero disables it.
	HealthCheckInterval time.Duration `json:"healthCheckInterval" env:"HEALTH_CHECK_INTERVAL"`
	Password            SecretString  `json:"password" env:"PASSWORD"`
	Address             string        `json:"address" env:"ADDRESS"`
	KeyPrefix           string        `json:"keyPrefix" env:"KEY_PREFIX"`
	DB                  int           `json:"db" env:"DB"`
	PoolSize            int           `json:"poolSize" env:"POOL_SIZE"`
	MinIdleConns        int           `json:"minIdleConns" env:"MIN_IDLE_CONNS"`
	EnableTLS           bool          `json:"enableTLS" env:"ENABLE_TLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify" env:"TLS_SKIP_VERIFY"`
}

// RemoteConfig contains configuration for the shared cache and quota service.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RemoteConfig struct {
	BaseURL   string        `json:"baseURL" env:"BASE_URL"`
	CheckPath string        `json:"checkPath" env:"CHECK_PATH"`
	StorePath string        `json:"storePath" env:"STORE_PATH"`
	LogPath   string        `json:"logPath" env:"LOG_PATH"`
	Timeout   time.Duration `json:"timeout" env:"TIMEOUT"`
	// AuthToken seeds the settings store when no token has been saved yet.
	AuthToken SecretString `json:"authToken" env:"AUTH_TOKEN"`
	Enabled   bool         `json:"enabled" env:"ENABLED"`
}

// SourceConfig contains configuration for the cloud provider and local server.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type SourceConfig struct {
	CloudURL string        `json:"cloudURL" env:"CLOUD_URL"`
	LocalURL string        `json:"localURL" env:"LOCAL_URL"`
	Timeout  time.Duration `json:"timeout" env:"TIMEOUT"`
	Language string        `json:"language" env:"LANGUAGE"`
	// DefaultPreference is used when the user has not chosen a source.
	DefaultPreference string `json:"defaultPreference" env:"DEFAULT_PREFERENCE"`
}

// BackgroundConfig contains configuration for fire-and-forget remote work.
type BackgroundConfig struct {
	OpTimeout  time.Duration `json:"opTimeout" env:"OP_TIMEOUT"`
	Workers    int           `json:"workers" env:"WORKERS"`
	MaxPending int           `json:"maxPending" env:"MAX_PENDING"`
}

// CircuitBreakerConfig contains configuration for the per-upstream circuit breakers.
// SuccessThreshold is both the number of probes let through while half-open
// and the number of consecutive successes needed to close again.
// FailureWindow clears the failure counts periodically while closed; zero
// keeps them until the next success.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled" env:"ENABLED"`
	FailureThreshold int           `json:"failureThreshold" env:"FAILURE_THRESHOLD"`
	SuccessThreshold int           `json:"successThreshold" env:"SUCCESS_THRESHOLD"`
	OpenDuration     time.Duration `json:"openDuration" env:"OPEN_DURATION"`
	FailureWindow    time.Duration `json:"failureWindow" env:"FAILURE_WINDOW"`
}

// RetryConfig contains configuration for the retry pattern.
type RetryConfig struct {
	InitialBackoff time.Duration `json:"initialBackoff" env:"INITIAL_BACKOFF"`
	MaxBackoff     time.Duration `json:"maxBackoff" env:"MAX_BACKOFF"`
	Multiplier     float64       `json:"multiplier" env:"MULTIPLIER"`
	MaxAttempts    int           `json:"maxAttempts" env:"MAX_ATTEMPTS"`
	Enabled        bool          `json:"enabled" env:"ENABLED"`
	Jitter         bool          `json:"jitter" env:"JITTER"`
}

// BulkheadConfig contains configuration for the bulkhead pattern.
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled" env:"ENABLED"`
	MaxConcurrent  int           `json:"maxConcurrent" env:"MAX_CONCURRENT"`
	MaxQueue       int           `json:"maxQueue" env:"MAX_QUEUE"`
	AcquireTimeout time.Duration `json:"acquireTimeout" env:"ACQUIRE_TIMEOUT"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval" env:"PUBLISH_INTERVAL"`
	DataDog         DataDogConfig `json:"datadog" envPrefix:"DATADOG_"`
	Enabled         bool          `json:"enabled" env:"ENABLED"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" env:"TAGS"`
	AgentHost string   `json:"agentHost" env:"AGENT_HOST"`
	Prefix    string   `json:"prefix" env:"PREFIX"`
	Port      int      `json:"port" env:"PORT"`
	Enabled   bool     `json:"enabled" env:"ENABLED"`
}
