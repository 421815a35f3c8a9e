package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// Skip reasons written to the store for ineligible reviews.
const (
	ReasonEmptyText = "empty-text"
	ReasonNonTarget = "non-target-language"
)

// Decision is the gate's binary verdict for one text.
type Decision struct {
	Eligible bool
	Reason   string // set only when ineligible
}

// detector is the slice of lingua's API the gate needs; tests inject fakes.
type detector interface {
	DetectLanguageOf(text string) (lingua.Language, bool)
}

// Gate decides whether a review text is eligible for sentiment scoring.
// Empty text is never eligible. Text under the short limit is always
// eligible, because statistical detection is unreliable on short idiomatic
// text ("GG", "Love it!!") and the scorers handle it fine. Everything else
// must detect as the target language.
type Gate struct {
	target     lingua.Language
	shortLimit int
	detector   detector
}

// New builds a gate for the given ISO 639-1 target language. Building the
// detector is cheap; language models load lazily on first detection.
func New(targetISO string, shortLimit int) (*Gate, error) {
	code := lingua.GetIsoCode639_1FromValue(targetISO)
	if code == lingua.UnknownIsoCode639_1 {
		return nil, fmt.Errorf("unknown target language %q", targetISO)
	}

	return &Gate{
		target:     lingua.GetLanguageFromIsoCode639_1(code),
		shortLimit: shortLimit,
		detector:   lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}, nil
}

// Evaluate returns the eligibility decision for a text. Pure for a given
// text; no retries, no state.
func (g *Gate) Evaluate(text string) Decision {
	if strings.TrimSpace(text) == "" {
		return Decision{Reason: ReasonEmptyText}
	}

	if utf8.RuneCountInString(text) < g.shortLimit {
		return Decision{Eligible: true}
	}

	detected, ok := g.detector.DetectLanguageOf(text)
	if !ok || detected != g.target {
		// Undetectable input resolves conservatively to ineligible.
		return Decision{Reason: ReasonNonTarget}
	}
	return Decision{Eligible: true}
}
