package database

// Sentiment labels shared by both classifiers. LabelSkipped is only ever
// written by the gate, never derived from a score.
const (
	LabelPositive = "Positive"
	LabelNeutral  = "Neutral"
	LabelNegative = "Negative"
	LabelSkipped  = "Skipped"
)

// Review is the unit of work and storage. Annotation fields are nil until an
// orchestrator pass fills them in.
type Review struct {
	ExternalID        string
	ProductKey        string
	Text              string
	Language          *string // Steam's own language tag, advisory
	CreatedAt         *string
	VotedUp           bool
	VotesUp           int64
	WeightedVoteScore float64

	LexiconScore      *float64
	LexiconLabel      *string
	ContextLabel      *string
	ContextConfidence *float64
	Skipped           bool
	SkipReason        *string
	AnalysisVersion   *string

	CollectedAt *string
	AnalyzedAt  *string
}

// Annotation is a partial per-review patch. Nil fields are left untouched.
// Setting Skipped to false also clears skip_reason.
type Annotation struct {
	ExternalID        string
	LexiconScore      *float64
	LexiconLabel      *string
	ContextLabel      *string
	ContextConfidence *float64
	AnalysisVersion   *string
	Skipped           *bool
	SkipReason        *string
}

// UpsertResult reports what an upsert batch did.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// ProductSummary aggregates annotation state for one product.
type ProductSummary struct {
	ProductKey string
	Total      int
	Analyzed   int
	Skipped    int
	Pending    int
	Positive   int
	Neutral    int
	Negative   int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalReviews int
	Analyzed     int
	Skipped      int
	Pending      int
	Products     int
}
