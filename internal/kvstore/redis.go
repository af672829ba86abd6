package kvstore

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/types"
)

const (
	disconnectErrorThreshold = 5
	scanBatchSize            = 100
)

// RedisStore is a KeyValueStore backed by Redis. Keys are laid out as
// prefix + namespace + ":" + key.
type RedisStore struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closeOnce         sync.Once
}

// NewRedisStore connects to Redis. Unlike a cache layer, the store refuses to
// come up without a successful ping so the lazy opener can retry later.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in for self-signed dev servers
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	client := redis.NewClient(opts)

	rs := &RedisStore{
		client:            client,
		config:            cfg,
		logger:            logger.With("component", "redis-store"),
		healthCheckStopCh: make(chan struct{}),
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, types.NewCacheError("Open", cfg.Address, "redis", err)
	}
	rs.connected.Store(true)
	rs.logger.Info("Redis connected", "address", cfg.Address)

	if cfg.HealthCheckInterval > 0 {
		rs.healthCheckWg.Add(1)
		go rs.healthCheckWorker()
	}

	return rs, nil
}

func (s *RedisStore) Name() string {
	return "redis"
}

func (s *RedisStore) IsAvailable() bool {
	return s.connected.Load()
}

func (s *RedisStore) prefixKey(namespace, key string) string {
	return s.config.KeyPrefix + namespace + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if !s.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	data, err := s.client.Get(ctx, s.prefixKey(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.clearError()
			return nil, types.ErrCacheMiss
		}
		s.handleError(err)
		return nil, types.NewCacheError("Get", key, "redis", err)
	}

	s.clearError()
	return data, nil
}

// Put stores value without expiry; freshness is judged by the caller.
func (s *RedisStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if err := s.client.Set(ctx, s.prefixKey(namespace, key), value, 0).Err(); err != nil {
		s.handleError(err)
		return types.NewCacheError("Put", key, "redis", err)
	}

	s.clearError()
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if err := s.client.Del(ctx, s.prefixKey(namespace, key)).Err(); err != nil {
		s.handleError(err)
		return types.NewCacheError("Delete", key, "redis", err)
	}

	s.clearError()
	return nil
}

// Keys walks the namespace with SCAN and returns the unprefixed keys.
func (s *RedisStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	if !s.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	prefix := s.prefixKey(namespace, "")
	pattern := prefix + "*"

	var cursor uint64
	keys := make([]string, 0)
	for {
		batch, nextCursor, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			s.handleError(err)
			return nil, types.NewCacheError("Keys", namespace, "redis", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	s.clearError()
	return keys, nil
}

func (s *RedisStore) healthCheckWorker() {
	defer s.healthCheckWg.Done()

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.healthCheckStopCh:
			return
		case <-ticker.C:
			s.performHealthCheck()
		}
	}
}

func (s *RedisStore) performHealthCheck() {
	wasConnected := s.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.DialTimeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		if wasConnected {
			s.logger.Warn("Redis health check failed", "error", err)
			s.setError(err)
		}
		return
	}

	if !wasConnected {
		s.connected.Store(true)
		s.errorCount.Store(0)
		s.logger.Info("Redis connection restored via health check")
	}
}

func (s *RedisStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		close(s.healthCheckStopCh)
		s.healthCheckWg.Wait()
		err = s.client.Close()
	})
	return err
}

func (s *RedisStore) handleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.lastErrorTime = time.Now()
	count := s.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if s.connected.CompareAndSwap(true, false) {
			s.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (s *RedisStore) clearError() {
	if s.errorCount.Swap(0) > 0 {
		if s.connected.CompareAndSwap(false, true) {
			s.logger.Info("Redis connection restored")
		}
	}
}

func (s *RedisStore) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastErrorTime = time.Now()
	s.connected.Store(false)
}

// LastError returns the most recent command error and when it happened.
func (s *RedisStore) LastError() (error, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError, s.lastErrorTime
}

var _ types.KeyValueStore = (*RedisStore)(nil)
