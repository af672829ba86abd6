// Package remote talks to the shared server-side subtitle cache and quota service.
//
// Reads fail open: when the service cannot be consulted the caller is told the
// video is not cached and that fetching is allowed. Writes return errors so the
// background dispatcher can log them; nothing here blocks a fetch on them.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/metrics"
	"github.com/LavishGent/subtitlecache/internal/resilience"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Fail-open reasons reported to metrics.
const (
	FailOpenNoToken     = "no_token"
	FailOpenNetwork     = "network"
	FailOpenStatus      = "status"
	FailOpenDecode      = "decode"
	FailOpenCircuitOpen = "circuit_open"
)

// StoreFormat is the subtitle format tag sent with cache writes.
const StoreFormat = "json3"

const maxResponseBytes = 4 << 20

// Client is the HTTP implementation of types.RemoteCache.
type Client struct {
	http     *http.Client
	tokens   types.TokenProvider
	policy   resilience.Executor
	metrics  types.MetricsRecorder
	logger   *slog.Logger
	baseURL  string
	check    string
	store    string
	log      string
	language string
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithPolicy guards every call with a resilience policy.
func WithPolicy(p resilience.Executor) Option {
	return func(cl *Client) { cl.policy = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m types.MetricsRecorder) Option {
	return func(cl *Client) { cl.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithLanguage sets the language used when a payload does not carry one.
func WithLanguage(lang string) Option {
	return func(cl *Client) { cl.language = lang }
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg config.RemoteConfig, tokens types.TokenProvider, opts ...Option) *Client {
	c := &Client{
		tokens:   tokens,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		check:    cfg.CheckPath,
		store:    cfg.StorePath,
		log:      cfg.LogPath,
		timeout:  cfg.Timeout,
		language: "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.policy == nil {
		c.policy = resilience.NewDisabledPolicy()
	}
	if c.metrics == nil {
		c.metrics = metrics.NewNoOpTracker()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "remote-cache")
	return c
}

type checkRequest struct {
	VideoID  string `json:"videoId"`
	Language string `json:"language"`
}

type usageResponse struct {
	Burst  string `json:"burst"`
	Hourly string `json:"hourly"`
	Daily  string `json:"daily"`
}

type checkResponse struct {
	Subtitles *types.SubtitlePayload `json:"subtitles"`
	Usage     *usageResponse         `json:"usage"`
	Allowed   *bool                  `json:"allowed"`
	Reason    string                 `json:"reason"`
	WaitTime  float64                `json:"waitTime"`
	HitCount  int                    `json:"hit_count"`
	Cached    bool                   `json:"cached"`
}

type storeRequest struct {
	Subtitles   *types.SubtitlePayload `json:"subtitles"`
	VideoID     string                 `json:"videoId"`
	VideoTitle  string                 `json:"videoTitle"`
	ChannelName string                 `json:"channelName"`
	Language    string                 `json:"language"`
	Format      string                 `json:"format"`
}

type logRequest struct {
	VideoID    string `json:"videoId"`
	VideoTitle string `json:"videoTitle"`
	Source     string `json:"source"`
	Success    bool   `json:"success"`
	FromCache  bool   `json:"fromCache"`
}

// CheckCacheAndLimits asks the service whether videoID is cached and, if not,
// whether a fresh fetch is allowed. It never fails: any problem yields
// types.FailOpenDecision.
func (c *Client) CheckCacheAndLimits(ctx context.Context, videoID, language string) types.QuotaDecision {
	token, err := c.token(ctx)
	if err != nil {
		return c.failOpen(videoID, FailOpenNoToken, err)
	}

	body := checkRequest{
		VideoID:  videoID,
		Language: types.CanonicalLanguage(language, c.language),
	}

	var resp checkResponse
	err = c.do(ctx, c.check, token, body, func(status int, r io.Reader) error {
		if status != http.StatusOK && status != http.StatusTooManyRequests {
			return &resilience.StatusError{StatusCode: status, Endpoint: c.check}
		}
		if err := json.NewDecoder(r).Decode(&resp); err != nil {
			return &decodeError{err: err}
		}
		return nil
	})
	if err != nil {
		return c.failOpen(videoID, failOpenReason(err), err)
	}

	return resp.decision()
}

// StoreInServerCache uploads a freshly fetched payload to the shared cache.
func (c *Client) StoreInServerCache(ctx context.Context, videoID, title, channel string, payload *types.SubtitlePayload) error {
	if payload == nil {
		return types.NewCacheError("Store", videoID, "remote", types.ErrSerializationFailed)
	}
	token, err := c.token(ctx)
	if err != nil {
		return types.NewCacheError("Store", videoID, "remote", err)
	}

	body := storeRequest{
		Subtitles:   payload,
		VideoID:     videoID,
		VideoTitle:  title,
		ChannelName: channel,
		Language:    types.CanonicalLanguage(payload.CaptionData.Language, c.language),
		Format:      StoreFormat,
	}

	if err := c.do(ctx, c.store, token, body, expect2xx(c.store)); err != nil {
		c.metrics.RecordError("remote", "store", err)
		return types.NewCacheError("Store", videoID, "remote", err)
	}
	return nil
}

// LogFetch sends one analytics record.
func (c *Client) LogFetch(ctx context.Context, entry types.FetchLog) error {
	token, err := c.token(ctx)
	if err != nil {
		return types.NewCacheError("Log", entry.VideoID, "remote", err)
	}

	body := logRequest{
		VideoID:    entry.VideoID,
		VideoTitle: entry.VideoTitle,
		Source:     entry.Source,
		Success:    entry.Success,
		FromCache:  entry.FromCache,
	}

	if err := c.do(ctx, c.log, token, body, expect2xx(c.log)); err != nil {
		c.metrics.RecordError("remote", "log", err)
		return types.NewCacheError("Log", entry.VideoID, "remote", err)
	}
	return nil
}

// IsCircuitOpen reports whether calls are currently short-circuited.
func (c *Client) IsCircuitOpen() bool {
	return c.policy.IsCircuitOpen()
}

// CircuitState returns the breaker state as a string.
func (c *Client) CircuitState() string {
	return c.policy.CircuitState().String()
}

func (c *Client) token(ctx context.Context) (types.SecretString, error) {
	if c.tokens == nil {
		return types.SecretString{}, types.ErrNoAuthToken
	}
	token, err := c.tokens.AuthToken(ctx)
	if token.IsEmpty() {
		if err != nil {
			return types.SecretString{}, fmt.Errorf("%w: %w", types.ErrNoAuthToken, err)
		}
		return types.SecretString{}, types.ErrNoAuthToken
	}
	// A provider may still hand back its configured token when its store is
	// down. The quota gate must keep working in that case.
	if err != nil {
		c.logger.Warn("Token lookup degraded, using fallback token", "error", err)
	}
	return token, nil
}

// do POSTs body as JSON to path and hands the response to handle, all under
// the policy and the per-call timeout.
func (c *Client) do(ctx context.Context, path string, token types.SecretString, body any, handle func(status int, r io.Reader) error) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.policy.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token.Value())

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		return handle(resp.StatusCode, io.LimitReader(resp.Body, maxResponseBytes))
	})
}

func (c *Client) failOpen(videoID, reason string, err error) types.QuotaDecision {
	c.logger.Warn("Remote cache check failed, allowing fetch",
		"video_id", videoID,
		"reason", reason,
		"error", err,
	)
	c.metrics.RecordFailOpen(reason)
	return types.FailOpenDecision()
}

func (r *checkResponse) decision() types.QuotaDecision {
	d := types.QuotaDecision{
		Cached:   r.Cached && r.Subtitles != nil,
		HitCount: r.HitCount,
		Reason:   r.Reason,
		WaitTime: time.Duration(r.WaitTime * float64(time.Second)),
		Allowed:  true,
	}
	if r.Allowed != nil {
		d.Allowed = *r.Allowed
	}
	if d.Cached {
		d.Subtitles = r.Subtitles
	}
	if r.Usage != nil {
		d.Usage = &types.Usage{
			Burst:  types.ParseUsageWindow(r.Usage.Burst),
			Hourly: types.ParseUsageWindow(r.Usage.Hourly),
			Daily:  types.ParseUsageWindow(r.Usage.Daily),
		}
	}
	return d
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func expect2xx(endpoint string) func(int, io.Reader) error {
	return func(status int, r io.Reader) error {
		if status < 200 || status > 299 {
			return &resilience.StatusError{StatusCode: status, Endpoint: endpoint}
		}
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
}

func failOpenReason(err error) string {
	var se *resilience.StatusError
	var de *decodeError
	switch {
	case resilience.IsCircuitOpen(err):
		return FailOpenCircuitOpen
	case errors.As(err, &se):
		return FailOpenStatus
	case errors.As(err, &de):
		return FailOpenDecode
	default:
		return FailOpenNetwork
	}
}

var _ types.RemoteCache = (*Client)(nil)
