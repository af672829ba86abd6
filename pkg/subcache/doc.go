// Package subcache resolves video subtitles through a chain of caches before
// falling back to a subtitle provider.
//
// A fetch checks, in order, a small in-process cache, a durable local store
// (SQLite or Redis), and a shared remote cache service that also enforces
// usage quotas. Only when every tier misses and the quota allows it is the
// user's selected provider contacted: the cloud transcript provider or a
// local extraction server. Fresh results are written back to every tier.
//
// # Quick Start
//
//	manager, err := subcache.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
//	res := manager.FetchSubtitles(ctx, "dQw4w9WgXcQ", "Video title", "Channel")
//	if !res.OK() {
//	    fmt.Println(res.Error.Message)
//	    return
//	}
//	fmt.Println(res.Source, len(res.Payload.Captions))
//
// # Results
//
// FetchSubtitles never returns a Go error. The result's Error field is nil on
// success; otherwise its Kind is one of KindInvalidVideoID, KindRateLimited,
// KindFetchFailed, KindClosed or KindInternal, and Message is ready to show
// to a user. Source reports where the payload came from:
//
//   - SourceMemory: the in-process tier, with AgeSeconds set
//   - SourceLocalCache: the durable tier, with AgeMinutes set
//   - SourceServerCache: the remote cache service, with HitCount set
//   - SourceCloud or SourceLocal: a fresh provider fetch
//
// # Quotas
//
// The remote service is asked once per fetch whether the video is cached and
// whether a fresh fetch is allowed. If it cannot be reached the fetch is
// allowed. A denial carries the reason, wait time and usage windows.
//
// # Provider Selection
//
// The cloud or local provider is chosen from the stored preference:
//
//	err := manager.SetSourcePreference(ctx, subcache.PreferenceLocal)
//
// A failed fetch is never retried on the other provider.
//
// # Configuration
//
// Load configuration from a JSON file with SUBCACHE_* environment overrides:
//
//	manager, err := subcache.NewFromFile("config.json")
//
// Or start from the defaults:
//
//	cfg := subcache.Config()
//	cfg.Store.Backend = "redis"
//	cfg.Store.Redis.Address = "localhost:6379"
//	manager, err := subcache.NewFromConfig(cfg)
//
// # Thread Safety
//
// A Manager is safe for concurrent use. Concurrent fetches of the same video
// that miss every local tier share one remote check and one provider call.
package subcache
