package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/intake-assistant/internal/ai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCallRecord
	queue []fakeResponse
}

type modelCallRecord struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelCallRecord{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func instantWait(t *testing.T) {
	t.Helper()
	original := waitFor
	waitFor = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { waitFor = original })
}

func newTestGenerator(models *fakeModels) *Generator {
	return &Generator{
		models:    models,
		model:     "gemini-pro",
		maxLogLen: defaultMaxLogLength,
		logger:    zap.NewNop(),
	}
}

func TestGeneratorBuildsRequest(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("retry ok"), nil)

	msgs := []ai.Message{
		{Role: ai.RoleSystem, Content: "system"},
		{Role: ai.RoleAssistant, Content: "What's your full name?"},
		{Role: ai.RoleUser, Content: "Jane Doe"},
	}
	opts := ai.DefaultOptions()

	output, err := newTestGenerator(models).Complete(context.Background(), msgs, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction to be set")
	}
	if call.config.MaxOutputTokens != 300 {
		t.Fatalf("unexpected max tokens: %d", call.config.MaxOutputTokens)
	}
	if len(call.contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(call.contents))
	}
	if call.contents[0].Role != genai.RoleModel || call.contents[1].Role != genai.RoleUser {
		t.Fatalf("unexpected roles: %q, %q", call.contents[0].Role, call.contents[1].Role)
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	instantWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	opts := ai.DefaultOptions()
	opts.Retry = 2

	output, err := newTestGenerator(models).Complete(context.Background(), nil, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	instantWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE", Message: "overloaded"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	opts := ai.DefaultOptions()
	opts.Retry = 1

	_, err := newTestGenerator(models).Complete(context.Background(), nil, opts)
	if got := ai.Display("", err); got != "API error (503): overloaded" {
		t.Fatalf("unexpected display: %q", got)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryPermanentError(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	_, err := newTestGenerator(models).Complete(context.Background(), nil, ai.DefaultOptions())
	if ai.KindOf(err) != ai.KindStatus {
		t.Fatalf("expected status error, got %v", err)
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	_, err := newTestGenerator(models).Complete(context.Background(), nil, ai.DefaultOptions())
	if ai.KindOf(err) != ai.KindFormat {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestGeneratorWithoutKey(t *testing.T) {
	g, err := NewGenerator(context.Background(), "  ", "", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != DefaultModel {
		t.Fatalf("unexpected default model: %q", g.Model())
	}

	_, err = g.Complete(context.Background(), nil, ai.DefaultOptions())
	if got := ai.Display("", err); got != "Missing GEMINI_API_KEY." {
		t.Fatalf("unexpected display: %q", got)
	}
}
