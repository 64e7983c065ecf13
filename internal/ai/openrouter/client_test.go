package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/intake-assistant/internal/ai"
)

const okBody = `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`

func noWait(t *testing.T) *[]time.Duration {
	t.Helper()
	original := waitFor
	waits := &[]time.Duration{}
	waitFor = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	t.Cleanup(func() { waitFor = original })
	return waits
}

func newTestClient(url string) *Client {
	return New(Config{APIKey: "secret", SiteURL: "http://localhost:8501", Endpoint: url}, zap.NewNop())
}

func sequenceServer(t *testing.T, statuses []int, bodies []string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(statuses) {
			t.Errorf("unexpected call #%d", n+1)
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(statuses[n])
		_, _ = io.WriteString(w, bodies[n])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCompleteSendsRequest(t *testing.T) {
	noWait(t)

	var got requestBody
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	opts := ai.DefaultOptions()
	msgs := []ai.Message{
		{Role: ai.RoleSystem, Content: "sys"},
		{Role: ai.RoleUser, Content: "hi"},
	}

	out, err := client.Complete(context.Background(), msgs, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("unexpected output: %q", out)
	}

	if headers.Get("Authorization") != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %q", headers.Get("Authorization"))
	}
	if headers.Get("Referer") != "http://localhost:8501" {
		t.Fatalf("unexpected referer header: %q", headers.Get("Referer"))
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type: %q", headers.Get("Content-Type"))
	}

	if got.Model != DefaultModel || got.MaxTokens != 300 || got.Temperature != 0.6 || got.TopP != 0.95 {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != ai.RoleUser || got.Messages[1].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteMissingCredential(t *testing.T) {
	client := New(Config{}, nil)

	_, err := client.Complete(context.Background(), nil, ai.DefaultOptions())
	if ai.KindOf(err) != ai.KindMissingCredential {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if ai.Display("", err) != "Missing OPENROUTER_API_KEY." {
		t.Fatalf("unexpected display: %q", ai.Display("", err))
	}
}

func TestCompleteRetriesTransientStatus(t *testing.T) {
	waits := noWait(t)

	srv, calls := sequenceServer(t,
		[]int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
		[]string{"busy", "busy", okBody},
	)

	opts := ai.DefaultOptions()
	opts.Retry = 2

	out, err := newTestClient(srv.URL).Complete(context.Background(), nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("unexpected output: %q", out)
	}
	if atomic.LoadInt32(calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", atomic.LoadInt32(calls))
	}
	if len(*waits) != 2 || (*waits)[0] != 1250*time.Millisecond {
		t.Fatalf("unexpected waits: %v", *waits)
	}
}

func TestCompleteStopsAfterRetriesExhausted(t *testing.T) {
	noWait(t)

	srv, calls := sequenceServer(t,
		[]int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway},
		[]string{"a", "b", "upstream down"},
	)

	_, err := newTestClient(srv.URL).Complete(context.Background(), nil, ai.DefaultOptions())
	if atomic.LoadInt32(calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", atomic.LoadInt32(calls))
	}
	if got := ai.Display("", err); got != "API error (502): upstream down" {
		t.Fatalf("unexpected display: %q", got)
	}
}

func TestCompleteDoesNotRetryPermanentStatus(t *testing.T) {
	noWait(t)

	srv, calls := sequenceServer(t, []int{http.StatusUnauthorized}, []string{`{"error":"bad key"}`})

	_, err := newTestClient(srv.URL).Complete(context.Background(), nil, ai.DefaultOptions())
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected single attempt, got %d", atomic.LoadInt32(calls))
	}

	var aiErr *ai.Error
	if !errors.As(err, &aiErr) || aiErr.Kind != ai.KindStatus || aiErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	if aiErr.Body != `{"error":"bad key"}` {
		t.Fatalf("unexpected body: %q", aiErr.Body)
	}
}

func TestCompleteNetworkError(t *testing.T) {
	waits := noWait(t)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	opts := ai.DefaultOptions()
	opts.Retry = 1

	_, err := newTestClient(url).Complete(context.Background(), nil, opts)
	if ai.KindOf(err) != ai.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if len(*waits) != 1 {
		t.Fatalf("expected one wait between attempts, got %d", len(*waits))
	}
	if ai.Display("", err) != "Network error contacting the model." {
		t.Fatalf("unexpected display: %q", ai.Display("", err))
	}
}

func TestCompleteUnexpectedFormat(t *testing.T) {
	noWait(t)

	bodies := []string{
		`not json`,
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":null}}]}`,
		`{"result":"hello"}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv, _ := sequenceServer(t, []int{http.StatusOK}, []string{body})
			_, err := newTestClient(srv.URL).Complete(context.Background(), nil, ai.DefaultOptions())
			if ai.KindOf(err) != ai.KindFormat {
				t.Fatalf("expected format error, got %v", err)
			}
		})
	}
}
