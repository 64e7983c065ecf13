package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/logger"
	"github.com/spigell/intake-assistant/internal/utils"
)

const (
	// APIURL is the OpenRouter chat completions endpoint.
	APIURL       = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "openrouter/auto"

	provider       = "openrouter"
	credentialName = "OPENROUTER_API_KEY"
	contentType    = "application/json"

	defaultMaxLogLength = 200
)

var waitFor = utils.WaitFor

// Config holds connection settings for the client.
type Config struct {
	APIKey  string
	SiteURL string
	Model   string
	// Endpoint overrides APIURL.
	Endpoint     string
	MaxLogLength int
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey    string
	siteURL   string
	model     string
	endpoint  string
	maxLogLen int

	HTTPClient *http.Client
	logger     *zap.Logger
}

type requestBody struct {
	Model       string       `json:"model"`
	Messages    []ai.Message `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	TopP        float64      `json:"top_p"`
}

// New creates a client. An empty API key is accepted: every call then fails
// with KindMissingCredential.
func New(cfg Config, log *zap.Logger) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = APIURL
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		siteURL:    strings.TrimSpace(cfg.SiteURL),
		model:      model,
		endpoint:   endpoint,
		maxLogLen:  maxLogLen,
		HTTPClient: &http.Client{},
		logger:     logger.ForProvider(log, provider, model),
	}
}

func (c *Client) Provider() string { return provider }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete posts the messages and returns choices[0].message.content.
// Network failures and transient statuses are retried opts.Retry times with
// opts.RetryDelay between attempts.
func (c *Client) Complete(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	if c.apiKey == "" {
		return "", &ai.Error{Kind: ai.KindMissingCredential, Credential: credentialName}
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = c.model
	}

	payload, err := json.Marshal(requestBody{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	retry := opts.Retry
	if retry < 0 {
		retry = 0
	}

	for attempt := 1; ; attempt++ {
		status, body, err := c.post(ctx, payload, opts.Timeout)
		if err != nil {
			c.logger.Debug("completion request failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt <= retry && ctx.Err() == nil {
				if werr := waitFor(ctx, opts.RetryDelay); werr == nil {
					continue
				}
			}
			return "", &ai.Error{Kind: ai.KindNetwork, Err: err}
		}

		if status < 200 || status > 299 {
			c.logger.Debug("completion request returned bad status",
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.String("body_preview", utils.TruncateForLog(string(body), c.maxLogLen)),
			)
			if attempt <= retry && ai.IsTransientStatus(status) {
				if werr := waitFor(ctx, opts.RetryDelay); werr == nil {
					continue
				}
			}
			return "", &ai.Error{Kind: ai.KindStatus, Status: status, Body: string(body)}
		}

		content := gjson.GetBytes(body, "choices.0.message.content")
		if !gjson.ValidBytes(body) || content.Type != gjson.String {
			c.logger.Debug("unexpected completion response",
				zap.String("body_preview", utils.TruncateForLog(string(body), c.maxLogLen)),
			)
			return "", &ai.Error{Kind: ai.KindFormat}
		}

		c.logger.Debug("completion response",
			zap.Int("attempt", attempt),
			zap.Int("response_length", utf8.RuneCountInString(content.Str)),
			zap.String("response_preview", utils.TruncateForLog(content.Str, c.maxLogLen)),
		)

		return content.Str, nil
	}
}

func (c *Client) post(ctx context.Context, payload []byte, timeout time.Duration) (int, []byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", contentType)
	if c.siteURL != "" {
		req.Header.Set("Referer", c.siteURL)
	}
}
