// Package history records executed requests in a local SQLite
// database so past runs can be inspected with `dothttp history`.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	executed_at TIMESTAMP NOT NULL,
	file TEXT NOT NULL,
	request TEXT NOT NULL,
	method TEXT NOT NULL,
	target TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	failed INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_executed_at ON requests(executed_at);
`

// Entry is one recorded request execution.
type Entry struct {
	ExecutedAt time.Time
	File       string
	Request    string
	Method     string
	Target     string
	StatusCode int
	Duration   time.Duration
	Failed     bool
}

// Store persists entries in a SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user history location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".dothttp", "history.db"), nil
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (executed_at, file, request, method, target, status_code, duration_ms, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ExecutedAt, entry.File, entry.Request, entry.Method, entry.Target,
		entry.StatusCode, entry.Duration.Milliseconds(), entry.Failed,
	)
	if err != nil {
		return fmt.Errorf("recording request: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT executed_at, file, request, method, target, status_code, duration_ms, failed
		FROM requests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var durationMs int64
		if err := rows.Scan(&entry.ExecutedAt, &entry.File, &entry.Request, &entry.Method,
			&entry.Target, &entry.StatusCode, &durationMs, &entry.Failed); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entry.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
