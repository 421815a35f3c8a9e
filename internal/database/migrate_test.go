package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenAppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)

	version, err := schemaVersion(db.conn)
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reviews.db")

	db1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()

	version, err := schemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestSchemaVersionUnstampedFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "raw.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	version, err := schemaVersion(conn)
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 on an unstamped file, got %d", version)
	}
}

func TestPathReportsStoreLocation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reviews.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
}
