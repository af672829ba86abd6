package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/kvstore"
	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/metrics/datadog"
	"github.com/LavishGent/subtitlecache/internal/remote"
	"github.com/LavishGent/subtitlecache/internal/resilience"
	"github.com/LavishGent/subtitlecache/internal/source"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// DefaultShutdownTimeout is the default timeout for shutting down the manager.
const DefaultShutdownTimeout = 30 * time.Second

// Background job names.
const (
	opStore = "store"
	opLog   = "log"
)

// Manager resolves subtitles through the volatile, persistent, remote and
// source tiers, strictly in that order. Any local hit returns before the
// remote service is contacted.
type Manager struct {
	volatile   types.VolatileLayer
	persistent types.PersistentLayer
	remote     types.RemoteCache
	source     types.SubtitleSource
	settings   *kvstore.Settings
	store      types.KeyValueStore
	background *Dispatcher
	validator  *types.VideoIDValidator

	remotePolicy resilience.Executor
	metrics      types.MetricsRecorder
	tracker      *metrics.Tracker
	publisher    types.Publisher
	healthPub    *metrics.HealthReporter

	config   *config.Config
	logger   *slog.Logger
	now      func() time.Time
	language string

	sfGroup   singleflight.Group
	ownsStore bool
	closed    atomic.Bool
}

// NewManager creates a manager from cfg. Collaborators set in opts replace
// the ones cfg would build.
//
//nolint:gocyclo // Wiring requires one branch per optional collaborator
func NewManager(cfg *config.Config, opts *types.ManagerOptions) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts == nil {
		opts = &types.ManagerOptions{}
	}

	logger := slog.Default()
	if opts.Logger != nil {
		logger = slog.New(slogAdapter{logger: opts.Logger})
	}

	if opts.DisableResilience {
		cfg.CircuitBreaker.Enabled = false
		cfg.Retry.Enabled = false
		cfg.Bulkhead.Enabled = false
	}
	if opts.DisablePersistent {
		cfg.Persistent.Enabled = false
	}
	if opts.Language != "" {
		cfg.Source.Language = opts.Language
	}

	m := &Manager{
		config:    cfg,
		logger:    logger.With("component", "subtitle-manager"),
		now:       time.Now,
		language:  types.CanonicalLanguage(cfg.Source.Language, "en"),
		validator: types.NewVideoIDValidator(cfg.VideoID.ToTypesConfig()),
	}
	if opts.Clock != nil {
		m.now = opts.Clock
	}

	if err := m.initMetrics(cfg, opts, logger); err != nil {
		return nil, err
	}

	serializer := opts.Serializer
	if serializer == nil {
		serializer = NewJSONSerializer()
	}

	m.store = opts.Store
	if m.store == nil {
		m.store = kvstore.NewLazy(kvstore.OpenerFromConfig(cfg.Store, logger), cfg.Persistent.OpenTimeout, logger)
		m.ownsStore = true
	}

	fallback, ok := types.ParseSourcePreference(cfg.Source.DefaultPreference)
	if !ok {
		fallback = types.PreferenceCloud
	}
	m.settings = kvstore.NewSettings(m.store, fallback, cfg.Remote.AuthToken)

	if cfg.Volatile.Enabled {
		vc, err := NewVolatileCache(cfg.Volatile, serializer, logger)
		if err != nil {
			return nil, fmt.Errorf("create volatile cache: %w", err)
		}
		vc.now = m.now
		vc.OnEvict(func(string) { m.metrics.RecordEviction(metrics.TierVolatile) })
		m.volatile = vc
	} else {
		m.volatile = NewDisabledVolatileCache()
	}

	if cfg.Persistent.Enabled {
		pc := NewPersistentCache(m.store, cfg.Persistent, serializer, logger)
		pc.now = m.now
		m.persistent = pc
	} else {
		m.persistent = NewDisabledPersistentCache()
	}

	m.remotePolicy = m.newPolicy("remote", cfg)
	switch {
	case opts.Remote != nil:
		m.remote = opts.Remote
	case cfg.Remote.Enabled:
		var tokens types.TokenProvider = m.settings
		if opts.Tokens != nil {
			tokens = opts.Tokens
		}
		m.remote = remote.NewClient(cfg.Remote, tokens,
			remote.WithPolicy(m.remotePolicy),
			remote.WithMetrics(m.metrics),
			remote.WithLogger(logger),
			remote.WithLanguage(m.language),
		)
	default:
		m.remote = remote.NewDisabled()
	}

	m.source = opts.Source
	if m.source == nil {
		var prefs types.PreferenceReader = m.settings
		if opts.Preferences != nil {
			prefs = opts.Preferences
		}
		cloud := source.NewCloudClient(cfg.Source, source.WithPolicy(m.newPolicy("cloud", cfg)), source.WithLogger(logger))
		local := source.NewLocalClient(cfg.Source, source.WithPolicy(m.newPolicy("local", cfg)), source.WithLogger(logger))
		m.source = source.NewFetcher(prefs, cloud, local, fallback, m.metrics, logger)
	}

	m.background = NewDispatcher(cfg.Background, logger, m.metrics)

	if m.healthPub != nil {
		m.healthPub.Start(context.Background())
	}

	m.logger.Info("Subtitle manager started",
		"volatile", m.volatile.IsAvailable(),
		"persistent", cfg.Persistent.Enabled,
		"store", cfg.Store.Backend,
		"remote", cfg.Remote.Enabled || opts.Remote != nil,
		"language", m.language,
	)

	return m, nil
}

func (m *Manager) initMetrics(cfg *config.Config, opts *types.ManagerOptions, logger *slog.Logger) error {
	m.publisher = metrics.NewNoOpPublisher()

	if opts.Metrics != nil {
		m.metrics = opts.Metrics
		return nil
	}

	m.tracker = metrics.NewTracker()
	if !cfg.Metrics.Enabled {
		m.metrics = m.tracker
		return nil
	}

	if cfg.Metrics.DataDog.Enabled {
		pub, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
		if err != nil {
			return fmt.Errorf("create datadog publisher: %w", err)
		}
		m.publisher = pub
	} else {
		m.publisher = metrics.NewLoggingPublisher(logger)
	}

	m.metrics = metrics.NewRecorder(m.tracker, m.publisher)
	if cfg.Metrics.PublishInterval > 0 {
		m.healthPub = metrics.NewHealthReporter(m.publisher, cfg.Metrics.PublishInterval, m.publisherHealth, logger)
	}
	return nil
}

func (m *Manager) newPolicy(name string, cfg *config.Config) resilience.Executor {
	p := resilience.NewPolicy(name, cfg)
	p.SetOnCircuitStateChange(func(from, to resilience.State) {
		m.logger.Warn("Circuit breaker state changed",
			"circuit", name,
			"from", from.String(),
			"to", to.String(),
		)
		m.metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
	})
	return p
}

// FetchSubtitles resolves subtitles for videoID. It never returns nil and
// never panics; failures are reported in the result's Error field. title and
// channel are only forwarded to the remote service.
func (m *Manager) FetchSubtitles(ctx context.Context, videoID, title, channel string) (result *types.FetchResult) {
	start := time.Now()
	stopTimer := metrics.StartTimer(m.publisher, "fetch.latency")

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Recovered from panic in FetchSubtitles", "video_id", videoID, "panic", r)
			m.metrics.RecordError("manager", "FetchSubtitles", fmt.Errorf("panic: %v", r))
			result = failure(videoID, &types.FetchError{
				Kind:    types.KindInternal,
				Message: fmt.Sprint(r),
			})
		}
		result.Elapsed = time.Since(start)
		stopTimer(metrics.Tag("outcome", outcome(result)))
	}()

	if m.closed.Load() {
		return failure(videoID, &types.FetchError{Kind: types.KindClosed, Message: types.ErrClosed.Error()})
	}

	if err := m.validator.Validate(videoID); err != nil {
		return failure(videoID, &types.FetchError{Kind: types.KindInvalidVideoID, Message: err.Error()})
	}

	if res := m.checkVolatile(ctx, videoID); res != nil {
		return res
	}
	if res := m.checkPersistent(ctx, videoID); res != nil {
		return res
	}

	// The flight is detached from the caller that started it, so one caller
	// giving up does not fail the others. Remote and source timeouts bound it.
	flight := context.WithoutCancel(ctx)
	ch := m.sfGroup.DoChan(videoID, func() (any, error) {
		return m.resolveShared(flight, videoID, title, channel), nil
	})

	select {
	case r := <-ch:
		res, ok := r.Val.(*types.FetchResult)
		if !ok {
			return failure(videoID, &types.FetchError{Kind: types.KindInternal, Message: fmt.Sprintf("unexpected result type: %T", r.Val)})
		}
		if r.Shared {
			cp := *res
			cp.Payload = res.Payload.Clone()
			res = &cp
		}
		return res
	case <-ctx.Done():
		return failure(videoID, &types.FetchError{Kind: types.KindCanceled, Message: ctx.Err().Error()})
	}
}

// resolveShared runs resolveRemote inside a flight. A panic there cannot reach
// any caller's stack, so it becomes an internal error result for all of them.
func (m *Manager) resolveShared(ctx context.Context, videoID, title, channel string) (res *types.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Recovered from panic while resolving remotely", "video_id", videoID, "panic", r)
			m.metrics.RecordError("manager", "resolveRemote", fmt.Errorf("panic: %v", r))
			res = failure(videoID, &types.FetchError{Kind: types.KindInternal, Message: fmt.Sprint(r)})
		}
	}()
	return m.resolveRemote(ctx, videoID, title, channel)
}

// checkVolatile returns a memory result on a hit and nil on a miss.
func (m *Manager) checkVolatile(ctx context.Context, videoID string) *types.FetchResult {
	start := time.Now()
	entry, err := m.volatile.Get(ctx, videoID)
	if err != nil {
		if !types.IsCacheMiss(err) {
			m.logger.Debug("Volatile read failed", "video_id", videoID, "error", err)
		}
		m.metrics.RecordMiss(metrics.TierVolatile, time.Since(start))
		return nil
	}
	m.metrics.RecordHit(metrics.TierVolatile, time.Since(start))
	return m.memoryResult(videoID, entry)
}

func (m *Manager) memoryResult(videoID string, entry *types.VolatileCacheEntry) *types.FetchResult {
	age := entry.Age(m.now())
	if age < 0 {
		age = 0
	}
	m.logger.Debug("Served from memory", "video_id", videoID, "age", age)

	return &types.FetchResult{
		VideoID:    videoID,
		Payload:    &entry.Payload,
		Source:     types.SourceMemory,
		Cached:     true,
		AgeSeconds: int64(age / time.Second),
	}
}

// checkPersistent returns a local_cache result on a fresh hit, promoting the
// payload into the volatile tier, and nil on a miss.
func (m *Manager) checkPersistent(ctx context.Context, videoID string) *types.FetchResult {
	start := time.Now()
	hit, err := m.persistent.Get(ctx, videoID)
	if err != nil {
		m.metrics.RecordMiss(metrics.TierPersistent, time.Since(start))
		return nil
	}
	m.metrics.RecordHit(metrics.TierPersistent, time.Since(start))

	payload := hit.Entry.Payload()
	if err := m.volatile.Put(ctx, videoID, payload); err != nil {
		m.logger.Debug("Failed to promote entry to memory", "video_id", videoID, "error", err)
	}
	m.logger.Debug("Served from local cache", "video_id", videoID, "age", hit.Age)

	return &types.FetchResult{
		VideoID:    videoID,
		Payload:    payload,
		Source:     types.SourceLocalCache,
		Cached:     true,
		AgeMinutes: int64(hit.Age / time.Minute),
	}
}

// resolveRemote runs the remote check, quota gate, source fetch and write-back.
// Concurrent callers for the same video share one run.
func (m *Manager) resolveRemote(ctx context.Context, videoID, title, channel string) *types.FetchResult {
	// A caller that just finished this video may have filled memory.
	lookup := time.Now()
	if entry, err := m.volatile.Get(ctx, videoID); err == nil {
		m.metrics.RecordHit(metrics.TierVolatile, time.Since(lookup))
		return m.memoryResult(videoID, entry)
	}

	start := time.Now()
	decision := m.remote.CheckCacheAndLimits(ctx, videoID, m.language)

	if decision.Cached && decision.Subtitles != nil {
		m.metrics.RecordHit(metrics.TierServer, time.Since(start))
		payload := decision.Subtitles
		m.writeLocal(ctx, videoID, payload)
		m.submitLog(videoID, title, string(types.SourceServerCache), true, true)

		m.logger.Debug("Served from server cache", "video_id", videoID, "hit_count", decision.HitCount)
		return &types.FetchResult{
			VideoID:  videoID,
			Payload:  payload.Clone(),
			Source:   types.SourceServerCache,
			Cached:   true,
			HitCount: decision.HitCount,
		}
	}
	m.metrics.RecordMiss(metrics.TierServer, time.Since(start))

	if !decision.Allowed {
		m.metrics.RecordQuotaDenied(decision.Reason)
		m.logger.Info("Fetch denied by quota",
			"video_id", videoID,
			"reason", decision.Reason,
			"wait", decision.WaitTime,
		)
		fe := &types.FetchError{
			Kind:     types.KindRateLimited,
			Reason:   decision.Reason,
			WaitTime: decision.WaitTime,
			Usage:    decision.Usage,
		}
		fe.Message = fe.UserMessage()
		return failure(videoID, fe)
	}

	payload, err := m.source.Fetch(ctx, videoID)
	if err != nil {
		pe, ok := types.AsProviderError(err)
		if !ok {
			pe = types.NewProviderError("", types.ErrTypeUnknown, "", err)
		}
		m.submitLog(videoID, title, string(pe.Source), false, false)
		return failure(videoID, &types.FetchError{
			Kind:     types.KindFetchFailed,
			Reason:   string(pe.Type),
			Message:  pe.UserMessage(),
			Provider: pe,
		})
	}

	m.writeLocal(ctx, videoID, payload)
	m.submitStore(videoID, title, channel, payload)
	m.submitLog(videoID, title, string(payload.CaptionData.Source), true, false)

	m.logger.Info("Fetched fresh subtitles",
		"video_id", videoID,
		"source", payload.CaptionData.Source,
		"type", payload.CaptionData.Type,
		"segments", len(payload.Captions),
	)
	return &types.FetchResult{
		VideoID: videoID,
		Payload: payload.Clone(),
		Source:  types.SourceFromProvider(payload.CaptionData.Source),
		Cached:  false,
	}
}

// writeLocal stores payload in both local tiers before the fetch returns.
// Failures only cost a future hit.
func (m *Manager) writeLocal(ctx context.Context, videoID string, payload *types.SubtitlePayload) {
	if err := m.volatile.Put(ctx, videoID, payload); err != nil {
		m.logger.Warn("Failed to write memory tier", "video_id", videoID, "error", err)
	}
	if err := m.persistent.Put(ctx, videoID, payload); err != nil {
		m.logger.Debug("Failed to write local cache", "video_id", videoID, "error", err)
	}
}

func (m *Manager) submitStore(videoID, title, channel string, payload *types.SubtitlePayload) {
	snapshot := payload.Clone()
	_ = m.background.Submit(opStore, videoID, func(ctx context.Context) error {
		return m.remote.StoreInServerCache(ctx, videoID, title, channel, snapshot)
	})
}

func (m *Manager) submitLog(videoID, title, src string, success, fromCache bool) {
	entry := types.FetchLog{
		VideoID:    videoID,
		VideoTitle: title,
		Source:     src,
		Success:    success,
		FromCache:  fromCache,
	}
	_ = m.background.Submit(opLog, videoID, func(ctx context.Context) error {
		return m.remote.LogFetch(ctx, entry)
	})
}

// Clear empties the volatile tier.
func (m *Manager) Clear(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	return m.volatile.Clear(ctx)
}

// Invalidate removes videoID from both local tiers.
func (m *Manager) Invalidate(ctx context.Context, videoID string) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	if err := m.validator.Validate(videoID); err != nil {
		return err
	}
	return errors.Join(
		m.volatile.Delete(ctx, videoID),
		m.persistent.Delete(ctx, videoID),
	)
}

// SourcePreference returns the stored cloud/local selection.
func (m *Manager) SourcePreference(ctx context.Context) (types.SourcePreference, error) {
	return m.settings.Preference(ctx)
}

// SetSourcePreference stores the cloud/local selection used by later fetches.
func (m *Manager) SetSourcePreference(ctx context.Context, pref types.SourcePreference) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	return m.settings.SetPreference(ctx, pref)
}

// SetAuthToken stores the bearer token for the remote service.
func (m *Manager) SetAuthToken(ctx context.Context, token types.SecretString) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	return m.settings.SetAuthToken(ctx, token)
}

// Health returns tier availability, circuit state and background queue depth.
func (m *Manager) Health(ctx context.Context) (*types.HealthMetrics, error) {
	h := &types.HealthMetrics{
		Timestamp: m.now(),
	}

	vs := m.volatile.Stats()
	h.Volatile = types.VolatileHealthMetrics{
		Status:        types.HealthStatusHealthy,
		Available:     m.volatile.IsAvailable(),
		EntryCount:    m.volatile.Len(),
		MaxEntries:    m.config.Volatile.MaxEntries,
		HitCount:      vs.Hits,
		MissCount:     vs.Misses,
		HitRatio:      ratio(vs.Hits, vs.Misses),
		EvictionCount: vs.Evictions,
	}
	if !h.Volatile.Available {
		h.Volatile.Status = types.HealthStatusUnhealthy
	}

	ps := m.persistent.Stats()
	h.Persistent = types.PersistentHealthMetrics{
		Status:       types.HealthStatusHealthy,
		Available:    m.persistent.IsAvailable(),
		HitCount:     ps.Hits,
		MissCount:    ps.Misses,
		ExpiredCount: ps.Expired,
		WriteErrors:  ps.WriteErrors,
	}
	if !h.Persistent.Available {
		h.Persistent.Status = types.HealthStatusUnhealthy
	}

	h.Remote = types.RemoteHealthMetrics{
		Status:              types.HealthStatusHealthy,
		Enabled:             m.config.Remote.Enabled,
		CircuitBreakerState: m.remotePolicy.CircuitState().String(),
		PendingBackground:   m.background.Pending(),
		DroppedBackground:   m.background.Dropped(),
	}
	if m.remotePolicy.IsCircuitOpen() {
		h.Remote.Status = types.HealthStatusDegraded
	}

	switch {
	case h.Volatile.Status != types.HealthStatusHealthy:
		h.Status = types.HealthStatusUnhealthy
	case h.Persistent.Status != types.HealthStatusHealthy, h.Remote.Status != types.HealthStatusHealthy:
		h.Status = types.HealthStatusDegraded
	default:
		h.Status = types.HealthStatusHealthy
	}

	return h, nil
}

// IsHealthy reports whether the manager can serve requests.
func (m *Manager) IsHealthy(ctx context.Context) bool {
	return !m.closed.Load() && m.volatile.IsAvailable()
}

// Snapshot returns the built-in tracker's counters. It is empty when a
// custom MetricsRecorder was supplied.
func (m *Manager) Snapshot() types.MetricsSnapshot {
	if m.tracker == nil {
		return types.MetricsSnapshot{}
	}
	return m.tracker.Snapshot()
}

func (m *Manager) publisherHealth() *types.PublisherHealthMetrics {
	h := metrics.HealthFromSnapshot(m.Snapshot())
	h.VolatileEntries = int64(m.volatile.Len())
	h.VolatileMaxEntries = int64(m.config.Volatile.MaxEntries)
	h.PendingBackground = int64(m.background.Pending())
	h.DroppedBackground = m.background.Dropped()
	h.PersistentAvailable = m.persistent.IsAvailable()
	h.CircuitOpen = m.remotePolicy.IsCircuitOpen()
	return h
}

// Close releases all resources using the default shutdown timeout.
func (m *Manager) Close() error {
	return m.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout waits up to timeout for background remote work to finish,
// then closes the tiers. On timeout it returns ErrShutdownTimeout but still
// closes everything.
func (m *Manager) CloseWithTimeout(timeout time.Duration) error {
	if m.closed.Swap(true) {
		return nil
	}

	m.logger.Info("Closing subtitle manager, waiting for background operations",
		"timeout", timeout,
		"pending", m.background.Pending(),
	)

	var errs []error

	if err := m.background.Close(timeout); err != nil {
		errs = append(errs, err)
	}

	if m.healthPub != nil {
		m.healthPub.Stop()
	}

	if err := m.volatile.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := m.persistent.Close(); err != nil {
		errs = append(errs, err)
	}
	// A store passed in by the caller stays open.
	if m.ownsStore {
		if err := m.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.publisher.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func failure(videoID string, fe *types.FetchError) *types.FetchResult {
	return &types.FetchResult{VideoID: videoID, Error: fe}
}

func outcome(r *types.FetchResult) string {
	if r.Error != nil {
		return string(r.Error.Kind)
	}
	return string(r.Source)
}

func ratio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

//nolint:govet // Simple adapter struct - alignment optimization minimal
type slogAdapter struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string // current group prefix from WithGroup calls
}

// Enabled implements slog.Handler.
func (a slogAdapter) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires passing Record by value
func (a slogAdapter) Handle(ctx context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)

	for _, attr := range a.attrs {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
	}

	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		a.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	default:
		a.logger.Debug(r.Message, args...)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(a.attrs), len(a.attrs)+len(attrs))
	copy(newAttrs, a.attrs)
	newAttrs = append(newAttrs, attrs...)
	return slogAdapter{
		logger: a.logger,
		attrs:  newAttrs,
		group:  a.group,
	}
}

// WithGroup implements slog.Handler.
func (a slogAdapter) WithGroup(name string) slog.Handler {
	newGroup := name
	if a.group != "" {
		newGroup = a.group + "." + name
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  a.attrs,
		group:  newGroup,
	}
}
