package store

import (
	"database/sql"
	"testing"
)

// OpenTest creates a DB backed by an in-memory database for use in tests.
func OpenTest(t *testing.T) *DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if err := migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return &DB{DB: db}
}
