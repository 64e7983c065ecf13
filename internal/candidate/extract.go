package candidate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// EmailPattern matches a local@domain.tld address.
	EmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// PhonePattern matches a run of at least nine digits with optional leading plus,
	// hyphens and spaces inside.
	PhonePattern = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)

	yearsPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:years|yrs|yoe|year)s?`)
	namePattern     = regexp.MustCompile(`(?i)(?:my\s+name\s+is|i\s*am|i'm)\s+([A-Za-z][A-Za-z'_\-]+(?:\s+[A-Za-z][A-Za-z'_\-]+){1,3})`)
	positionPattern = regexp.MustCompile(`(?i)(?:looking\s+for|applying\s+for|interested\s+in|targeting|role\s+of|position\s+of)\s+(.+)`)
)

// Extractor pulls a candidate value for one field out of free text.
// An empty result means nothing was found.
type Extractor interface {
	Extract(text string) string
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(text string) string

func (f ExtractorFunc) Extract(text string) string { return f(text) }

var titleCaser = cases.Title(language.English)

// ExtractName matches phrases like "my name is", "I am" or "I'm" followed by
// two to four words and returns them title-cased.
func ExtractName(text string) string {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return titleName(strings.TrimSpace(m[1]))
}

// titleName title-cases words and also capitalizes the letter after an
// apostrophe or underscore, so "o'brien" becomes "O'Brien".
func titleName(s string) string {
	runes := []rune(titleCaser.String(s))
	for i := 1; i < len(runes); i++ {
		switch runes[i-1] {
		case '\'', '_':
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

// ExtractPosition returns the rest of the line after a role-introducing phrase.
func ExtractPosition(text string) string {
	m := positionPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func ExtractEmail(text string) string {
	return EmailPattern.FindString(text)
}

func ExtractPhone(text string) string {
	return strings.TrimSpace(PhonePattern.FindString(text))
}

// ExtractYears returns the number together with its unit, e.g. "5 years".
func ExtractYears(text string) string {
	return yearsPattern.FindString(text)
}

// ExtractVerbatim accepts any non-empty text as is.
func ExtractVerbatim(text string) string {
	return strings.TrimSpace(text)
}

// DefaultExtractors returns the built-in strategy for every field.
func DefaultExtractors() map[Field]Extractor {
	return map[Field]Extractor{
		FullName:         ExtractorFunc(ExtractName),
		DesiredPositions: ExtractorFunc(ExtractPosition),
		Email:            ExtractorFunc(ExtractEmail),
		Phone:            ExtractorFunc(ExtractPhone),
		YearsExperience:  ExtractorFunc(ExtractYears),
		Location:         ExtractorFunc(ExtractVerbatim),
		TechStack:        ExtractorFunc(ExtractVerbatim),
	}
}

// Filler writes extracted values into a record.
type Filler struct {
	extractors map[Field]Extractor
}

// NewFiller builds a Filler. Missing entries in overrides fall back to the defaults.
func NewFiller(overrides map[Field]Extractor) *Filler {
	extractors := DefaultExtractors()
	for f, e := range overrides {
		if e != nil {
			extractors[f] = e
		}
	}
	return &Filler{extractors: extractors}
}

func (f *Filler) extract(field Field, text string) string {
	e, ok := f.extractors[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(e.Extract(text))
}

// Fill applies the extraction policy of field to text and stores the result.
// It reports whether the field is filled afterwards.
//
// The name step also picks up a desired position mentioned in the same
// utterance when that field is still empty. Name, position and years steps
// fall back to the raw text; email and phone never do.
func (f *Filler) Fill(r Record, field Field, text string) bool {
	text = strings.TrimSpace(text)
	value := f.extract(field, text)

	switch field {
	case FullName:
		if value == "" {
			value = text
		}
		if pos := f.extract(DesiredPositions, text); pos != "" && !r.Filled(DesiredPositions) {
			r[DesiredPositions] = pos
		}
	case DesiredPositions, YearsExperience:
		if value == "" {
			value = text
		}
	}

	if value != "" {
		r[field] = value
	}

	return r.Filled(field)
}
