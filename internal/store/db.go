package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

// ErrBestEffortNotFound is returned when no best effort is stored for a key
var ErrBestEffortNotFound = errors.New("best effort not found")

// ErrSeriesPointNotFound is returned when a load series point doesn't exist
var ErrSeriesPointNotFound = errors.New("series point not found")

// DB wraps the SQLite connection and provides the data access layer.
type DB struct {
	*sql.DB
}

// Open opens the SQLite database at path, creating it if necessary.
func Open(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Run migrations
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{DB: db}, nil
}

// DefaultPath returns the default database location, ~/.trainload/data.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainload", "data.db"), nil
}
