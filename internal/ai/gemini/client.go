package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/logger"
	"github.com/spigell/intake-assistant/internal/utils"
)

const (
	DefaultModel = "gemini-2.5-flash"

	provider       = "gemini"
	credentialName = "GEMINI_API_KEY"

	defaultMaxLogLength = 200
)

var waitFor = utils.WaitFor

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements ai.Completer on top of the Google GenAI client.
type Generator struct {
	models    contentGenerator
	model     string
	maxLogLen int
	logger    *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
// Without an API key the generator is still usable but every call fails with
// KindMissingCredential.
func NewGenerator(ctx context.Context, apiKey, model string, maxLogLength int, log *zap.Logger) (*Generator, error) {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	g := &Generator{
		model:     model,
		maxLogLen: maxLogLength,
		logger:    logger.ForProvider(log, provider, model),
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.models = client.Models

	return g, nil
}

func (g *Generator) Provider() string { return provider }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete sends the conversation to Gemini. System messages become the
// system instruction and assistant messages are sent with the model role.
func (g *Generator) Complete(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	if g == nil || g.models == nil {
		return "", &ai.Error{Kind: ai.KindMissingCredential, Credential: credentialName}
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = g.model
	}

	contents, config := buildRequest(messages, opts)

	retry := opts.Retry
	if retry < 0 {
		retry = 0
	}

	for attempt := 1; ; attempt++ {
		resp, err := g.generate(ctx, model, contents, config, opts)
		if err == nil {
			output := responseText(resp)
			if output == "" {
				return "", &ai.Error{Kind: ai.KindFormat, Err: errors.New("gemini api returned empty response")}
			}

			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}

		var apiErr genai.APIError
		isAPIErr := errors.As(err, &apiErr)

		g.logger.Debug("gemini generate content failed", zap.Int("attempt", attempt), zap.Error(err))

		retryable := !isAPIErr || ai.IsTransientStatus(apiErr.Code)
		if attempt <= retry && retryable && ctx.Err() == nil {
			if werr := waitFor(ctx, opts.RetryDelay); werr == nil {
				continue
			}
		}

		if isAPIErr {
			return "", &ai.Error{Kind: ai.KindStatus, Status: apiErr.Code, Body: apiErr.Message, Err: err}
		}
		return "", &ai.Error{Kind: ai.KindNetwork, Err: err}
	}
}

func (g *Generator) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig, opts ai.Options) (*genai.GenerateContentResponse, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return g.models.GenerateContent(ctx, model, contents, config)
}

func buildRequest(messages []ai.Message, opts ai.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}

		switch m.Role {
		case ai.RoleSystem:
			system = append(system, text)
		case ai.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: text}},
			})
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	return contents, config
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
