package lexicon

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
)

// Label thresholds on the compound score. Applied here and nowhere else.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Scorer computes lexicon-based polarity with the general-purpose VADER
// table plus domain slang overrides. Stateless after construction; safe to
// reuse across passes.
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewScorer builds a scorer. Overrides are merged into the base lexicon by
// exact lowercase token; on conflict the override wins. Valences use the
// VADER scale (-4 .. 4).
func NewScorer(overrides map[string]float64) *Scorer {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	for term, valence := range overrides {
		analyzer.Lexicon[strings.ToLower(term)] = valence
	}
	return &Scorer{analyzer: analyzer}
}

// Score returns the compound polarity of text in [-1, 1]. Deterministic for
// a fixed lexicon.
func (s *Scorer) Score(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}

// LabelFor derives the sentiment label from a compound score.
func LabelFor(score float64) string {
	switch {
	case score >= positiveThreshold:
		return database.LabelPositive
	case score <= negativeThreshold:
		return database.LabelNegative
	default:
		return database.LabelNeutral
	}
}
