package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"viralstudio/internal/app/model"
	"viralstudio/pkg/httputil"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	defaultTrendsPath  = "/trends"
	defaultScriptPath  = "/generate_script"
	defaultVideoPath   = "/generate_video"
	defaultUserAgent   = "viralstudio/1.0"
	headerRequestID    = "X-Request-ID"
	genericScriptError = "Script generation failed"
	genericVideoError  = "Generation failed"
	emptyScriptError   = "Empty script generated"
)

type Config struct {
	BaseURL    string
	TrendsPath string
	ScriptPath string
	VideoPath  string
	UserAgent  string
	Retry      httputil.RetryConfig
}

// Client talks to the script, video and trends endpoints of the studio backend.
// Job calls and the trends read are single requests with no client timeout.
// Only artifact downloads go through the retrying transport.
type Client struct {
	api       *resty.Client
	downloads *resty.Client
	baseURL   string
	paths     Config
}

// APIError is a non-success answer from the backend, with the optional
// human-readable detail it sent.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Detail)
}

type videoResponse struct {
	VideoPath *string `json:"video_path"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func NewClient(cfg Config) *Client {
	applyDefaults(&cfg)
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	api := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	downloads := resty.NewWithClient(httputil.NewRetryClient(cfg.Retry)).
		SetBaseURL(baseURL).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Client{
		api:       api,
		downloads: downloads,
		baseURL:   baseURL,
		paths:     cfg,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.TrendsPath == "" {
		cfg.TrendsPath = defaultTrendsPath
	}
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = defaultScriptPath
	}
	if cfg.VideoPath == "" {
		cfg.VideoPath = defaultVideoPath
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
}

func (c *Client) Trends(ctx context.Context) ([]model.TrendEntry, error) {
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString()).
		Get(c.paths.TrendsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch trends: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(resp.Body(), "Failed to fetch trends")}
	}

	var entries []model.TrendEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("decode trends: %w", err)
	}

	return entries, nil
}

func (c *Client) GenerateScript(ctx context.Context, req model.ScriptRequest) (*model.ScriptDraft, error) {
	body, err := c.postJob(ctx, c.paths.ScriptPath, req, genericScriptError)
	if err != nil {
		return nil, err
	}

	var draft model.ScriptDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("decode script response: %w", err)
	}
	if strings.TrimSpace(draft.Script) == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Detail: emptyScriptError}
	}
	if draft.VisualPrompts == nil {
		draft.VisualPrompts = []model.VisualPrompt{}
	}

	return &draft, nil
}

// AssembleVideo returns the server-side path of the finished video.
func (c *Client) AssembleVideo(ctx context.Context, req model.VideoRequest) (string, error) {
	if req.VisualPrompts == nil {
		req.VisualPrompts = []model.VisualPrompt{}
	}

	body, err := c.postJob(ctx, c.paths.VideoPath, req, genericVideoError)
	if err != nil {
		return "", err
	}

	var result videoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode video response: %w", err)
	}
	if result.VideoPath == nil || *result.VideoPath == "" {
		return "", errors.New("decode video response: missing video_path")
	}

	return *result.VideoPath, nil
}

// Download streams an artifact served under the artifact prefix. The caller closes the reader.
func (c *Client) Download(ctx context.Context, artifactURL string) (io.ReadCloser, error) {
	resp, err := c.downloads.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString()).
		SetDoNotParseResponse(true).
		Get(artifactURL)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}

	raw := resp.RawBody()
	if !resp.IsSuccess() {
		detail, _ := io.ReadAll(io.LimitReader(raw, 4096))
		_ = raw.Close()
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(detail, "Download failed")}
	}

	return raw, nil
}

// ResolveURL turns an artifact URL into an absolute URL on the backend host.
func (c *Client) ResolveURL(artifactURL string) string {
	if strings.HasPrefix(artifactURL, "http://") || strings.HasPrefix(artifactURL, "https://") {
		return artifactURL
	}
	return c.baseURL + "/" + strings.TrimLeft(artifactURL, "/")
}

func (c *Client) postJob(ctx context.Context, path string, payload any, generic string) ([]byte, error) {
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString()).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(resp.Body(), generic)}
	}

	return resp.Body(), nil
}

// errorDetail extracts the "detail" field of an error body, falling back to generic.
func errorDetail(body []byte, generic string) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return generic
	}

	detail := bytes.TrimSpace(parsed.Detail)
	if len(detail) == 0 || bytes.Equal(detail, []byte("null")) {
		return generic
	}

	var text string
	if err := json.Unmarshal(detail, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return generic
		}
		return text
	}

	return string(detail)
}
