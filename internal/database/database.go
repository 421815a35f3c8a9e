// Package database persists Steam reviews and their sentiment annotations
// in a single sqlite file under the data directory.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the review store. One file, one table, pointer-optional annotation
// columns filled in by analysis passes.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the review store at dbPath, creating the file and any missing
// parent directories, and brings the schema up to date. WAL mode keeps the
// serve surface readable while a collect or analyze run is writing.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening review store: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the store's file location, for status reporting.
func (db *DB) Path() string {
	return db.path
}
