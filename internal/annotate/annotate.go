// Package annotate runs the dual-path sentiment pass over stored reviews:
// an eligibility gate, a lexicon scorer, and a context classifier, with all
// results committed in a single batch.
package annotate

import (
	"fmt"
	"log"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/classify"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/gate"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/lexicon"
)

// EligibilityGate decides whether a review's text is worth analyzing.
type EligibilityGate interface {
	Evaluate(text string) gate.Decision
}

// PolarityScorer produces a compound polarity score in [-1, 1].
type PolarityScorer interface {
	Score(text string) float64
}

// Annotator drives one analysis pass. All collaborators are injected so
// tests can substitute fakes for the detector and the model.
type Annotator struct {
	db         *database.DB
	gate       EligibilityGate
	scorer     PolarityScorer
	classifier classify.Classifier
	version    string
}

func New(db *database.DB, g EligibilityGate, scorer PolarityScorer, classifier classify.Classifier, version string) *Annotator {
	return &Annotator{
		db:         db,
		gate:       g,
		scorer:     scorer,
		classifier: classifier,
		version:    version,
	}
}

// Result summarizes one analysis pass.
type Result struct {
	Reopened int64
	Selected int
	Analyzed int
	Skipped  int
}

// Run reopens previously skipped reviews so current gate rules get a fresh
// say, selects everything without a context label, annotates each review,
// and writes the whole batch in one transaction. A storage failure leaves
// every review untouched for the next run.
func (a *Annotator) Run() (*Result, error) {
	reopened, err := a.db.ReopenSkipped()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen skipped reviews: %w", err)
	}
	if reopened > 0 {
		log.Printf("Reopened %d previously skipped reviews", reopened)
	}

	reviews, err := a.db.GetUnanalyzedReviews()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending reviews: %w", err)
	}

	result := &Result{Reopened: reopened, Selected: len(reviews)}
	if len(reviews) == 0 {
		return result, nil
	}

	patches := make([]database.Annotation, 0, len(reviews))
	for _, review := range reviews {
		patch := a.annotate(review)
		if patch.Skipped != nil && *patch.Skipped {
			result.Skipped++
		} else {
			result.Analyzed++
		}
		patches = append(patches, patch)
	}

	if err := a.db.ApplyAnnotations(patches); err != nil {
		return nil, fmt.Errorf("failed to store annotations: %w", err)
	}
	log.Printf("Analyzed %d reviews, skipped %d", result.Analyzed, result.Skipped)
	return result, nil
}

func (a *Annotator) annotate(review database.Review) database.Annotation {
	patch := database.Annotation{
		ExternalID:      review.ExternalID,
		AnalysisVersion: &a.version,
	}

	decision := a.gate.Evaluate(review.Text)
	if !decision.Eligible {
		skipped := true
		skipLabel := database.LabelSkipped
		patch.Skipped = &skipped
		patch.SkipReason = &decision.Reason
		patch.LexiconLabel = &skipLabel
		return patch
	}

	score := a.scorer.Score(review.Text)
	lexLabel := lexicon.LabelFor(score)
	ctx := a.classifier.Classify(review.Text)

	notSkipped := false
	patch.Skipped = &notSkipped
	patch.LexiconScore = &score
	patch.LexiconLabel = &lexLabel
	patch.ContextLabel = &ctx.Label
	patch.ContextConfidence = &ctx.Confidence
	return patch
}
