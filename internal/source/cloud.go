package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/resilience"
	"github.com/LavishGent/subtitlecache/internal/types"
)

const maxResponseBytes = 16 << 20

// Option configures the cloud and local clients.
type Option func(*clientOptions)

type clientOptions struct {
	http   *http.Client
	policy resilience.Executor
	logger *slog.Logger
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.http = c }
}

// WithPolicy guards provider calls with a resilience policy.
func WithPolicy(p resilience.Executor) Option {
	return func(o *clientOptions) { o.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.http == nil {
		o.http = &http.Client{}
	}
	if o.policy == nil {
		o.policy = resilience.NewDisabledPolicy()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// CloudClient fetches transcripts from the cloud transcript provider.
type CloudClient struct {
	clientOptions
	baseURL  string
	language string
	timeout  time.Duration
}

// NewCloudClient creates a client for the provider at cfg.CloudURL.
func NewCloudClient(cfg config.SourceConfig, opts ...Option) *CloudClient {
	o := buildOptions(opts)
	o.logger = o.logger.With("component", "cloud-source")
	return &CloudClient{
		clientOptions: o,
		baseURL:       strings.TrimRight(cfg.CloudURL, "/"),
		language:      types.CanonicalLanguage(cfg.Language, "en"),
		timeout:       cfg.Timeout,
	}
}

type cloudSnippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type cloudTranscript struct {
	LanguageCode string         `json:"language_code"`
	Snippets     []cloudSnippet `json:"snippets"`
	IsGenerated  bool           `json:"is_generated"`
}

type cloudResponse struct {
	Transcript *cloudTranscript `json:"transcript"`
	ErrorType  string           `json:"error_type"`
	Error      string           `json:"error"`
	Success    bool             `json:"success"`
	WarpActive bool             `json:"warp_active"`
}

// Fetch retrieves and normalizes the transcript for videoID.
func (c *CloudClient) Fetch(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + "/transcript/" + url.PathEscape(videoID) + "?" + url.Values{"lang": {types.BaseLanguage(c.language)}}.Encode()

	result, err := c.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, asProviderError(types.ProviderCloud, err)
	}
	resp := result.(*cloudResponse)

	if !resp.Success {
		pe := types.NewProviderError(types.ProviderCloud, types.ProviderErrorType(resp.ErrorType), resp.Error, nil)
		pe.WarpActive = resp.WarpActive
		return nil, pe
	}
	if resp.Transcript == nil || len(resp.Transcript.Snippets) == 0 {
		return nil, types.NewProviderError(types.ProviderCloud, types.ErrTypeNoTranscript, "transcript has no snippets", nil)
	}

	return c.normalize(resp.Transcript), nil
}

func (c *CloudClient) get(ctx context.Context, endpoint string) (*cloudResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out cloudResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if resp.StatusCode >= 500 {
			return nil, types.NewProviderError(types.ProviderCloud, types.ErrTypeServerError, http.StatusText(resp.StatusCode), &resilience.StatusError{StatusCode: resp.StatusCode, Endpoint: "/transcript"})
		}
		return nil, types.NewProviderError(types.ProviderCloud, types.ErrTypeUnknown, "unreadable provider response", err)
	}

	// A typed failure in the body is returned as a value so the breaker sees
	// a healthy round trip unless the provider itself is in trouble.
	if !out.Success {
		typ := types.ProviderErrorType(out.ErrorType)
		if typ == types.ErrTypeIPBlocked || typ == types.ErrTypeServerError {
			pe := types.NewProviderError(types.ProviderCloud, typ, out.Error, nil)
			pe.WarpActive = out.WarpActive
			return nil, pe
		}
	}
	return &out, nil
}

func (c *CloudClient) normalize(t *cloudTranscript) *types.SubtitlePayload {
	captions := make([]types.CaptionSegment, 0, len(t.Snippets))
	for _, s := range t.Snippets {
		if seg, ok := newSegment(s.Start, segmentEnd(s.Start, s.Duration, t.IsGenerated), s.Text); ok {
			captions = append(captions, seg)
		}
	}
	return &types.SubtitlePayload{
		Captions: captions,
		CaptionData: types.CaptionData{
			Language: types.CanonicalLanguage(t.LanguageCode, c.language),
			Type:     captionType(t.IsGenerated),
			Source:   types.ProviderCloud,
		},
	}
}

// asProviderError classifies anything that is not already a provider error.
func asProviderError(source types.ProviderTag, err error) *types.ProviderError {
	if pe, ok := types.AsProviderError(err); ok {
		return pe
	}
	var se *resilience.StatusError
	if errors.As(err, &se) && se.StatusCode >= 500 {
		return types.NewProviderError(source, types.ErrTypeServerError, http.StatusText(se.StatusCode), err)
	}
	if errors.As(err, &se) {
		return types.NewProviderError(source, types.ErrTypeUnknown, http.StatusText(se.StatusCode), err)
	}
	return types.NewProviderError(source, types.ErrTypeNetworkError, "", err)
}

var _ types.SubtitleSource = (*CloudClient)(nil)
