package lexicon

import (
	"testing"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
)

var gamingSlang = map[string]float64{
	"peak":       4.0,
	"goated":     4.0,
	"mid":        -1.5,
	"unplayable": -4.0,
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScorer(gamingSlang)
	text := "Absolutely goated game, best thing I played all year"
	if s.Score(text) != s.Score(text) {
		t.Error("expected identical scores for identical text")
	}
}

func TestScoreStaysInRange(t *testing.T) {
	s := NewScorer(gamingSlang)
	for _, text := range []string{
		"peak peak peak goated",
		"unplayable trash, worst game ever, truly horrible",
		"it is a game",
		"",
	} {
		score := s.Score(text)
		if score < -1 || score > 1 {
			t.Errorf("score for %q out of range: %v", text, score)
		}
	}
}

func TestDomainOverridesApply(t *testing.T) {
	s := NewScorer(gamingSlang)

	if score := s.Score("This game is goated"); score < positiveThreshold {
		t.Errorf("expected positive score for slang praise, got %v", score)
	}
	if score := s.Score("This game is unplayable"); score > negativeThreshold {
		t.Errorf("expected negative score for slang complaint, got %v", score)
	}
}

func TestOverrideWinsOverBaseLexicon(t *testing.T) {
	// "great" is strongly positive in the base table; forcing it negative
	// must take effect (last write wins).
	s := NewScorer(map[string]float64{"GREAT": -3.5})
	if score := s.Score("great"); score >= 0 {
		t.Errorf("expected overridden term to score negative, got %v", score)
	}
}

func TestLabelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.8, database.LabelPositive},
		{0.05, database.LabelPositive},
		{0.049, database.LabelNeutral},
		{0.0, database.LabelNeutral},
		{-0.049, database.LabelNeutral},
		{-0.05, database.LabelNegative},
		{-0.9, database.LabelNegative},
	}
	for _, tc := range cases {
		if got := LabelFor(tc.score); got != tc.want {
			t.Errorf("LabelFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
