package sentiment

import (
	"fmt"
	"strings"
)

type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

const (
	PositiveThreshold = 0.30
	NegativeThreshold = -0.30
)

// Result is the outcome of classifying one utterance.
type Result struct {
	Label Label
	// Compound is the normalized polarity in [-1, 1].
	Compound float64
}

// Classifier scores the tone of an utterance.
type Classifier interface {
	Classify(text string) Result
}

// LabelFor maps a compound score to a label.
func LabelFor(compound float64) Label {
	switch {
	case compound >= PositiveThreshold:
		return Positive
	case compound <= NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Prefix returns the acknowledgment phrase that opens the next assistant reply.
func Prefix(label Label) string {
	switch label {
	case Positive:
		return "Great —"
	case Negative:
		return "Thanks for sharing —"
	default:
		return "Thanks —"
	}
}

// WithPrefix prepends the acknowledgment for label to msg.
func WithPrefix(label Label, msg string) string {
	return Prefix(label) + " " + msg
}

// Badge renders the result for display next to the echoed user message.
func Badge(r Result) string {
	label := string(r.Label)
	if label == "" {
		label = string(Neutral)
	}
	return fmt.Sprintf("Sentiment: %s%s (%+.2f)", strings.ToUpper(label[:1]), label[1:], r.Compound)
}
