package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/logger"
	"github.com/spigell/intake-assistant/internal/utils"
)

//go:embed system_prompt.md
var systemPrompt string

const (
	DefaultCount = 3

	defaultMaxLogLength = 200
)

// SystemPrompt returns the fixed instruction that opens every conversation.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// Generator asks a language model for technical questions about a tech stack.
type Generator struct {
	completer ai.Completer
	base      ai.Options
	maxLogLen int
	logger    *zap.Logger
}

// NewGenerator creates a Generator. base supplies the model, timeout and retry
// policy; sampling parameters are fixed for question generation.
func NewGenerator(completer ai.Completer, base ai.Options, maxLogLength int, log *zap.Logger) *Generator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		completer: completer,
		base:      base,
		maxLogLen: maxLogLength,
		logger:    logger.ForProvider(log, completer.Provider(), completer.Model()),
	}
}

// Messages builds the prompt for the given stack.
func Messages(techStack string, n int) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: SystemPrompt()},
		{Role: ai.RoleUser, Content: fmt.Sprintf("Tech stack: %s\nReturn EXACTLY %d technical questions as JSON list.", techStack, n)},
	}
}

// Generate returns at most n questions. A short or empty list is not an error;
// a failed completion is returned as is.
func (g *Generator) Generate(ctx context.Context, techStack string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultCount
	}

	opts := g.base
	opts.Temperature = 0.4
	opts.MaxTokens = 400
	opts.TopP = 0.9

	messages := Messages(techStack, n)

	g.logger.Debug("generate questions request",
		zap.String("tech_stack", utils.TruncateForLog(techStack, g.maxLogLen)),
		zap.Int("count", n),
	)

	raw, err := g.completer.Complete(ctx, messages, opts)
	if err != nil {
		g.logger.Warn("generate questions failed", zap.Error(err), zap.String("kind", ai.KindOf(err).String()))
		return nil, err
	}

	g.logger.Debug("generate questions response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	questions := Parse(raw)
	if len(questions) > n {
		questions = questions[:n]
	}

	if len(questions) < n {
		g.logger.Warn("model returned fewer questions than requested",
			zap.Int("requested", n),
			zap.Int("received", len(questions)),
		)
	}

	return questions, nil
}

// Parse extracts questions from a model reply. A JSON array is preferred;
// otherwise every line containing a question mark is taken.
func Parse(raw string) []string {
	cleaned := stripFences(raw)

	var parsed []any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		questions := make([]string, 0, len(parsed))
		for _, item := range parsed {
			if q := stringify(item); q != "" {
				questions = append(questions, q)
			}
		}
		return questions
	}

	questions := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "?") {
			continue
		}
		if q := strings.Trim(line, "-• "); q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(val)
		if err != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", val))
		}
		return strings.TrimSpace(string(bytes))
	}
}
