package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		err    error
		expect string
	}{
		{"success", "hello", nil, "hello"},
		{"missing credential", "", &Error{Kind: KindMissingCredential, Credential: "OPENROUTER_API_KEY"}, "Missing OPENROUTER_API_KEY."},
		{"network", "", &Error{Kind: KindNetwork, Err: errors.New("dial tcp")}, "Network error contacting the model."},
		{"status", "", &Error{Kind: KindStatus, Status: 401, Body: `{"error":"no auth"}`}, `API error (401): {"error":"no auth"}`},
		{"format", "", &Error{Kind: KindFormat}, "Unexpected response format."},
		{"wrapped", "", fmt.Errorf("questions: %w", &Error{Kind: KindFormat}), "Unexpected response format."},
		{"foreign", "", errors.New("boom"), "Unexpected error contacting the model."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Display(tt.text, tt.err); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", &Error{Kind: KindNetwork})
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network kind, got %s", KindOf(err))
	}
	if KindOf(errors.New("x")) != KindUnknown {
		t.Fatal("expected unknown kind for foreign error")
	}
}

func TestIsTransientStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientStatus(code) {
			t.Fatalf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		if IsTransientStatus(code) {
			t.Fatalf("expected %d to be permanent", code)
		}
	}
}
