package remote

import (
	"context"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// Disabled stands in when no remote service is configured. Every check
// allows the fetch; writes are dropped.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) CheckCacheAndLimits(ctx context.Context, videoID, language string) types.QuotaDecision {
	return types.FailOpenDecision()
}

func (Disabled) StoreInServerCache(ctx context.Context, videoID, title, channel string, payload *types.SubtitlePayload) error {
	return nil
}

func (Disabled) LogFetch(ctx context.Context, entry types.FetchLog) error {
	return nil
}

var _ types.RemoteCache = Disabled{}
