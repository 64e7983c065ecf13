package conversation

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode selects how exit keywords are searched for.
type MatchMode string

const (
	// MatchSubstring matches a keyword anywhere, so "end" also hits "backend".
	MatchSubstring MatchMode = "substring"
	// MatchWord only matches whole words.
	MatchWord MatchMode = "word"
)

// DefaultExitKeywords end the conversation when found in a user turn.
var DefaultExitKeywords = []string{"bye", "exit", "end", "stop", "quit", "thank you", "thanks"}

// ExitDetector decides whether an utterance terminates the conversation.
type ExitDetector struct {
	keywords []string
	word     *regexp.Regexp
}

// NewExitDetector builds a detector. Empty keywords fall back to the defaults
// and an empty mode means substring matching.
func NewExitDetector(keywords []string, mode MatchMode) (*ExitDetector, error) {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultExitKeywords...)
	}

	d := &ExitDetector{keywords: normalized}

	switch mode {
	case "", MatchSubstring:
	case MatchWord:
		quoted := make([]string, 0, len(normalized))
		for _, kw := range normalized {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
		d.word = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	default:
		return nil, fmt.Errorf("unknown exit match mode %q", mode)
	}

	return d, nil
}

// Matches reports whether text contains any exit keyword, ignoring case.
func (d *ExitDetector) Matches(text string) bool {
	if d.word != nil {
		return d.word.MatchString(text)
	}

	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
