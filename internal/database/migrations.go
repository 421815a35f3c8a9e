package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS reviews (
    external_id TEXT PRIMARY KEY,
    product_key TEXT NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    language TEXT,
    created_at TEXT,
    voted_up INTEGER NOT NULL DEFAULT 0,
    votes_up INTEGER NOT NULL DEFAULT 0,
    weighted_vote_score REAL NOT NULL DEFAULT 0,
    lexicon_score REAL,
    lexicon_label TEXT,
    context_label TEXT,
    context_confidence REAL,
    skipped INTEGER NOT NULL DEFAULT 0,
    skip_reason TEXT,
    analysis_version TEXT,
    collected_at TEXT DEFAULT (datetime('now')),
    analyzed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_key);
CREATE INDEX IF NOT EXISTS idx_reviews_pending ON reviews(context_label);
CREATE INDEX IF NOT EXISTS idx_reviews_skipped ON reviews(skipped);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
