package ai

import (
	"errors"
	"fmt"
)

// Kind classifies completion failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingCredential
	KindNetwork
	KindStatus
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Error is returned by Completer implementations.
type Error struct {
	Kind Kind
	// Status and Body are set for KindStatus.
	Status int
	Body   string
	// Credential names the missing secret for KindMissingCredential.
	Credential string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		name := e.Credential
		if name == "" {
			name = "API key"
		}
		return fmt.Sprintf("Missing %s.", name)
	case KindNetwork:
		return "Network error contacting the model."
	case KindStatus:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
	case KindFormat:
		return "Unexpected response format."
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "completion failed"
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindUnknown
}

// Display converts a completion result into text suitable for the chat.
func Display(text string, err error) string {
	if err == nil {
		return text
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Error()
	}
	return "Unexpected error contacting the model."
}
