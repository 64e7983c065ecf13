package ai

import (
	"context"
	"net/http"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options controls a single completion request.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
	// Timeout applies to each attempt separately.
	Timeout    time.Duration
	Retry      int
	RetryDelay time.Duration
}

// DefaultOptions are the conversational generation parameters.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.6,
		MaxTokens:   300,
		TopP:        0.95,
		Timeout:     60 * time.Second,
		Retry:       2,
		RetryDelay:  1250 * time.Millisecond,
	}
}

// Completer sends messages to a language model and returns its text reply.
// Failures are reported as *Error.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	Provider() string
	Model() string
}

// IsTransientStatus reports whether a retry is likely to succeed for the HTTP status.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
