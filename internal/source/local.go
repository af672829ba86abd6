package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/LavishGent/subtitlecache/internal/config"
	"github.com/LavishGent/subtitlecache/internal/resilience"
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Local extraction server endpoints.
const (
	PathExtractJSON3 = "/extract-subs-json3"
	PathExtractPlain = "/extract-subs"
)

// LocalClient extracts captions through a server running on the user's machine.
// It asks for the timed json3 format first and, only if that attempt fails,
// for plain WebVTT/SRT text.
type LocalClient struct {
	clientOptions
	baseURL  string
	language string
	timeout  time.Duration
}

// NewLocalClient creates a client for the server at cfg.LocalURL.
func NewLocalClient(cfg config.SourceConfig, opts ...Option) *LocalClient {
	o := buildOptions(opts)
	o.logger = o.logger.With("component", "local-source")
	return &LocalClient{
		clientOptions: o,
		baseURL:       strings.TrimRight(cfg.LocalURL, "/"),
		language:      types.CanonicalLanguage(cfg.Language, "en"),
		timeout:       cfg.Timeout,
	}
}

type localRequest struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
}

type captionGroup struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type localResponse struct {
	CaptionGroups []captionGroup `json:"caption_groups"`
	Content       string         `json:"content"`
	Language      string         `json:"language"`
	SubtitleType  string         `json:"subtitle_type"`
	ErrorType     string         `json:"error_type"`
	Error         string         `json:"error"`
	Success       bool           `json:"success"`
}

// Fetch extracts captions for videoID.
func (c *LocalClient) Fetch(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := c.fetchJSON3(ctx, videoID)
	if err == nil {
		return payload, nil
	}
	if ctx.Err() != nil {
		return nil, asProviderError(types.ProviderLocal, err)
	}

	c.logger.Debug("json3 extraction failed, trying plain format", "video_id", videoID, "error", err)

	payload, err = c.fetchPlain(ctx, videoID)
	if err != nil {
		return nil, asProviderError(types.ProviderLocal, err)
	}
	return payload, nil
}

func (c *LocalClient) fetchJSON3(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	resp, err := c.post(ctx, PathExtractJSON3, videoID)
	if err != nil {
		return nil, err
	}

	generated := isGeneratedType(resp.SubtitleType)
	captions := make([]types.CaptionSegment, 0, len(resp.CaptionGroups))
	for _, g := range resp.CaptionGroups {
		if seg, ok := newSegment(g.Start, g.End, g.Text); ok {
			captions = append(captions, seg)
		}
	}
	if len(captions) == 0 {
		return nil, types.NewProviderError(types.ProviderLocal, types.ErrTypeNoTranscript, "no caption groups", nil)
	}

	return c.payload(captions, resp.Language, generated), nil
}

func (c *LocalClient) fetchPlain(ctx context.Context, videoID string) (*types.SubtitlePayload, error) {
	resp, err := c.post(ctx, PathExtractPlain, videoID)
	if err != nil {
		return nil, err
	}

	cues, err := parseCues(resp.Content)
	if err != nil {
		return nil, types.NewProviderError(types.ProviderLocal, types.ErrTypeUnknown, "unreadable caption text", err)
	}

	captions := make([]types.CaptionSegment, 0, len(cues))
	var text strings.Builder
	for _, cu := range cues {
		if seg, ok := newSegment(cu.start, cu.end, cu.text); ok {
			captions = append(captions, seg)
			text.WriteString(seg.Text)
			text.WriteByte(' ')
		}
	}
	if len(captions) == 0 {
		return nil, types.NewProviderError(types.ProviderLocal, types.ErrTypeNoTranscript, "caption text has no cues", nil)
	}

	lang := resp.Language
	if lang == "" {
		lang = detectLanguage(text.String())
	}
	return c.payload(captions, lang, isGeneratedType(resp.SubtitleType)), nil
}

func (c *LocalClient) post(ctx context.Context, path, videoID string) (*localResponse, error) {
	data, err := json.Marshal(localRequest{VideoID: videoID, Language: types.BaseLanguage(c.language)})
	if err != nil {
		return nil, err
	}

	result, err := c.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var out localResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
			if resp.StatusCode >= 500 {
				return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Endpoint: path}
			}
			return nil, types.NewProviderError(types.ProviderLocal, types.ErrTypeUnknown, "unreadable server response", err)
		}
		if resp.StatusCode >= 500 && !out.Success {
			return nil, types.NewProviderError(types.ProviderLocal, providerType(out.ErrorType, types.ErrTypeServerError), out.Error, nil)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	out := result.(*localResponse)
	if !out.Success {
		return nil, types.NewProviderError(types.ProviderLocal, providerType(out.ErrorType, types.ErrTypeUnknown), out.Error, nil)
	}
	return out, nil
}

func (c *LocalClient) payload(captions []types.CaptionSegment, lang string, generated bool) *types.SubtitlePayload {
	return &types.SubtitlePayload{
		Captions: captions,
		CaptionData: types.CaptionData{
			Language: types.CanonicalLanguage(lang, c.language),
			Type:     captionType(generated),
			Source:   types.ProviderLocal,
		},
	}
}

func providerType(s string, fallback types.ProviderErrorType) types.ProviderErrorType {
	if s == "" {
		return fallback
	}
	return types.ProviderErrorType(s)
}

// detectLanguage guesses the ISO 639-1 code of caption text. Unreliable
// guesses return "" so the configured language is used.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

var _ types.SubtitleSource = (*LocalClient)(nil)
