package database

import (
	"database/sql"
	"fmt"
	"strings"
)

const reviewColumns = `external_id, product_key, text, language, created_at,
	voted_up, votes_up, weighted_vote_score,
	lexicon_score, lexicon_label, context_label, context_confidence,
	skipped, skip_reason, analysis_version, collected_at, analyzed_at`

// UpsertReviews inserts or merges a batch of raw reviews keyed by external_id.
// Only raw fields are written on merge; annotation fields computed by earlier
// passes are never touched. Safe to replay with overlapping batches.
func (db *DB) UpsertReviews(reviews []Review) (*UpsertResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	result := &UpsertResult{}
	for _, r := range reviews {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM reviews WHERE external_id = ?", r.ExternalID).Scan(&exists)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.Exec(
				`INSERT INTO reviews (external_id, product_key, text, language, created_at,
					voted_up, votes_up, weighted_vote_score)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ExternalID, r.ProductKey, r.Text, r.Language, r.CreatedAt,
				boolToInt(r.VotedUp), r.VotesUp, r.WeightedVoteScore,
			)
			if err != nil {
				return nil, fmt.Errorf("insert review %s: %w", r.ExternalID, err)
			}
			result.Inserted++
		case err != nil:
			return nil, fmt.Errorf("checking review %s: %w", r.ExternalID, err)
		default:
			_, err = tx.Exec(
				`UPDATE reviews SET product_key = ?, text = ?, language = ?, created_at = ?,
					voted_up = ?, votes_up = ?, weighted_vote_score = ?
				WHERE external_id = ?`,
				r.ProductKey, r.Text, r.Language, r.CreatedAt,
				boolToInt(r.VotedUp), r.VotesUp, r.WeightedVoteScore,
				r.ExternalID,
			)
			if err != nil {
				return nil, fmt.Errorf("update review %s: %w", r.ExternalID, err)
			}
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return result, nil
}

// GetUnanalyzedReviews returns all reviews without a context label. The
// slower model's completion is the progress marker; lexicon scoring is cheap
// and recomputed alongside it.
func (db *DB) GetUnanalyzedReviews() ([]Review, error) {
	rows, err := db.conn.Query(
		"SELECT "+reviewColumns+" FROM reviews WHERE context_label IS NULL ORDER BY collected_at, external_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// ReopenSkipped clears the skip state on all currently-skipped reviews,
// returning them to the unanalyzed pool. Gating rules change between runs;
// previously-skipped reviews get a fresh evaluation instead of a permanent
// exclusion. Returns the number of reviews reopened.
func (db *DB) ReopenSkipped() (int64, error) {
	res, err := db.conn.Exec(
		"UPDATE reviews SET skipped = 0, skip_reason = NULL, lexicon_label = NULL WHERE skipped = 1",
	)
	if err != nil {
		return 0, fmt.Errorf("reopening skipped reviews: %w", err)
	}
	return res.RowsAffected()
}

// ApplyAnnotations applies per-review patches in a single transaction. Nil
// fields in a patch leave the stored value untouched. Any failure rolls the
// whole batch back so affected reviews stay selectable for the next pass.
func (db *DB) ApplyAnnotations(patches []Annotation) error {
	if len(patches) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin annotations: %w", err)
	}
	defer tx.Rollback()

	for _, p := range patches {
		set, args := buildAnnotationSet(p)
		if len(set) == 0 {
			continue
		}
		args = append(args, p.ExternalID)
		res, err := tx.Exec(
			"UPDATE reviews SET "+strings.Join(set, ", ")+" WHERE external_id = ?", args...,
		)
		if err != nil {
			return fmt.Errorf("annotating review %s: %w", p.ExternalID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("annotating review %s: not found", p.ExternalID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit annotations: %w", err)
	}
	return nil
}

func buildAnnotationSet(p Annotation) (set []string, args []any) {
	if p.LexiconScore != nil {
		set = append(set, "lexicon_score = ?")
		args = append(args, *p.LexiconScore)
	}
	if p.LexiconLabel != nil {
		set = append(set, "lexicon_label = ?")
		args = append(args, *p.LexiconLabel)
	}
	if p.ContextLabel != nil {
		set = append(set, "context_label = ?", "analyzed_at = datetime('now')")
		args = append(args, *p.ContextLabel)
	}
	if p.ContextConfidence != nil {
		set = append(set, "context_confidence = ?")
		args = append(args, *p.ContextConfidence)
	}
	if p.AnalysisVersion != nil {
		set = append(set, "analysis_version = ?")
		args = append(args, *p.AnalysisVersion)
	}
	if p.Skipped != nil {
		set = append(set, "skipped = ?")
		args = append(args, boolToInt(*p.Skipped))
		if !*p.Skipped && p.SkipReason == nil {
			set = append(set, "skip_reason = NULL")
		}
	}
	if p.SkipReason != nil {
		set = append(set, "skip_reason = ?")
		args = append(args, *p.SkipReason)
	}
	return set, args
}

// GetReview returns a single review by external id, or nil if absent.
func (db *DB) GetReview(externalID string) (*Review, error) {
	row := db.conn.QueryRow(
		"SELECT "+reviewColumns+" FROM reviews WHERE external_id = ?", externalID,
	)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAllReviews returns the materialized corpus, optionally filtered by
// product. This is the read-only view the dashboard consumes.
func (db *DB) GetAllReviews(productKey string) ([]Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews"
	var args []any
	if productKey != "" {
		query += " WHERE product_key = ?"
		args = append(args, productKey)
	}
	query += " ORDER BY collected_at DESC, external_id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// GetProductSummaries aggregates annotation state per product.
func (db *DB) GetProductSummaries() ([]ProductSummary, error) {
	rows, err := db.conn.Query(`
		SELECT product_key,
			COUNT(*),
			SUM(CASE WHEN context_label IS NOT NULL THEN 1 ELSE 0 END),
			SUM(skipped),
			SUM(CASE WHEN context_label IS NULL AND skipped = 0 THEN 1 ELSE 0 END),
			SUM(CASE WHEN context_label = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN context_label = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN context_label = ? THEN 1 ELSE 0 END)
		FROM reviews GROUP BY product_key ORDER BY product_key`,
		LabelPositive, LabelNeutral, LabelNegative,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ProductSummary
	for rows.Next() {
		var s ProductSummary
		if err := rows.Scan(&s.ProductKey, &s.Total, &s.Analyzed, &s.Skipped,
			&s.Pending, &s.Positive, &s.Neutral, &s.Negative); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetStats returns aggregate corpus statistics.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
			SUM(CASE WHEN context_label IS NOT NULL THEN 1 ELSE 0 END),
			SUM(skipped),
			SUM(CASE WHEN context_label IS NULL AND skipped = 0 THEN 1 ELSE 0 END),
			COUNT(DISTINCT product_key)
		FROM reviews`,
	).Scan(&stats.TotalReviews, &nullInt{&stats.Analyzed}, &nullInt{&stats.Skipped},
		&nullInt{&stats.Pending}, &stats.Products)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return stats, nil
}

// nullInt scans a possibly-NULL aggregate (SUM over zero rows) as zero.
type nullInt struct{ dest *int }

func (n *nullInt) Scan(value any) error {
	if value == nil {
		*n.dest = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		*n.dest = int(v)
	case float64:
		*n.dest = int(v)
	default:
		return fmt.Errorf("unexpected aggregate type %T", value)
	}
	return nil
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		var r Review
		var votedUp, skipped int
		if err := rows.Scan(&r.ExternalID, &r.ProductKey, &r.Text, &r.Language, &r.CreatedAt,
			&votedUp, &r.VotesUp, &r.WeightedVoteScore,
			&r.LexiconScore, &r.LexiconLabel, &r.ContextLabel, &r.ContextConfidence,
			&skipped, &r.SkipReason, &r.AnalysisVersion, &r.CollectedAt, &r.AnalyzedAt); err != nil {
			return nil, err
		}
		r.VotedUp = votedUp != 0
		r.Skipped = skipped != 0
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row *sql.Row) (*Review, error) {
	var r Review
	var votedUp, skipped int
	if err := row.Scan(&r.ExternalID, &r.ProductKey, &r.Text, &r.Language, &r.CreatedAt,
		&votedUp, &r.VotesUp, &r.WeightedVoteScore,
		&r.LexiconScore, &r.LexiconLabel, &r.ContextLabel, &r.ContextConfidence,
		&skipped, &r.SkipReason, &r.AnalysisVersion, &r.CollectedAt, &r.AnalyzedAt); err != nil {
		return nil, err
	}
	r.VotedUp = votedUp != 0
	r.Skipped = skipped != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
