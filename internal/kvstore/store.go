// Package kvstore provides the durable key-value stores behind the
// persistent subtitle tier and the user settings.
package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Namespaces used by the engine.
const (
	NamespaceSubtitles = "subtitles"
	NamespaceSettings  = "settings"
)

const openFlightKey = "open"

// Opener creates a store handle. It is called at most once per flight.
type Opener func(ctx context.Context) (types.KeyValueStore, error)

// OpenerFromConfig returns an Opener for the configured backend.
func OpenerFromConfig(cfg config.StoreConfig, logger *slog.Logger) Opener {
	return func(ctx context.Context) (types.KeyValueStore, error) {
		switch cfg.Backend {
		case config.BackendRedis:
			return NewRedisStore(ctx, cfg.Redis, logger)
		case config.BackendSQLite, "":
			return NewSQLiteStore(ctx, cfg.SQLite)
		default:
			return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
		}
	}
}

// Lazy opens its underlying store on first use. Concurrent first callers
// share one in-flight open. A successful handle is kept until Close; a
// failed open is reported to every waiter of that flight and retried by
// the next caller.
type Lazy struct {
	open        Opener
	openTimeout time.Duration
	logger      *slog.Logger
	group       singleflight.Group

	mu     sync.RWMutex
	store  types.KeyValueStore
	closed bool

	openFailures atomic.Int64
}

// NewLazy wraps open. openTimeout bounds each open attempt; zero means no bound.
func NewLazy(open Opener, openTimeout time.Duration, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lazy{
		open:        open,
		openTimeout: openTimeout,
		logger:      logger.With("component", "kvstore"),
	}
}

// Ready returns the open store, opening it if needed.
func (l *Lazy) Ready(ctx context.Context) (types.KeyValueStore, error) {
	l.mu.RLock()
	store, closed := l.store, l.closed
	l.mu.RUnlock()

	if closed {
		return nil, types.ErrClosed
	}
	if store != nil {
		return store, nil
	}

	ch := l.group.DoChan(openFlightKey, l.openOnce)
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(types.KeyValueStore), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Lazy) openOnce() (any, error) {
	l.mu.RLock()
	store := l.store
	l.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	// The flight outlives any single caller, so it is not bound to a caller context.
	ctx := context.Background()
	if l.openTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.openTimeout)
		defer cancel()
	}

	opened, err := l.open(ctx)
	if err != nil {
		failures := l.openFailures.Add(1)
		l.logger.Warn("Store open failed", "error", err, "failures", failures)
		return nil, types.NewCacheError("Open", "", "kvstore", fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		_ = opened.Close()
		return nil, types.ErrClosed
	}
	l.store = opened
	l.logger.Debug("Store opened")
	return opened, nil
}

// IsAvailable reports whether a store handle has been opened.
func (l *Lazy) IsAvailable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store != nil && !l.closed
}

// OpenFailures returns how many open attempts have failed.
func (l *Lazy) OpenFailures() int64 {
	return l.openFailures.Load()
}

func (l *Lazy) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	store, err := l.Ready(ctx)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, namespace, key)
}

func (l *Lazy) Put(ctx context.Context, namespace, key string, value []byte) error {
	store, err := l.Ready(ctx)
	if err != nil {
		return err
	}
	return store.Put(ctx, namespace, key, value)
}

func (l *Lazy) Delete(ctx context.Context, namespace, key string) error {
	store, err := l.Ready(ctx)
	if err != nil {
		return err
	}
	return store.Delete(ctx, namespace, key)
}

func (l *Lazy) Keys(ctx context.Context, namespace string) ([]string, error) {
	store, err := l.Ready(ctx)
	if err != nil {
		return nil, err
	}
	return store.Keys(ctx, namespace)
}

// Close closes the opened store, if any. Later calls return ErrClosed.
func (l *Lazy) Close() error {
	l.mu.Lock()
	store := l.store
	l.store = nil
	l.closed = true
	l.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Close()
}

var _ types.KeyValueStore = (*Lazy)(nil)
