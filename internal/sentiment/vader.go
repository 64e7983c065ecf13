package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Vader classifies utterances with the VADER lexicon and rules.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Classify(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Label: Neutral}
	}
	c := v.analyzer.PolarityScores(text).Compound
	return Result{Label: LabelFor(c), Compound: c}
}
