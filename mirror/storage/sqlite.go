package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS partitions (
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, kind)
)`

// SQLite is a Backend storing one row per (user, collection).
// Useful when many users share one cache and rewriting a whole JSON
// document per write gets expensive.
type SQLite struct {
	db       *sql.DB
	timeFunc func() time.Time
}

// NewSQLite opens (creating if needed) a SQLite database at dbPath
func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}

	return &SQLite{db: db, timeFunc: time.Now}, nil
}

// Read implements Backend.Read
func (s *SQLite) Read(userID string, kind Kind) ([]byte, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM partitions WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(userID, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read %s for %q: %w", kind, userID, err)
	}
	return payload, nil
}

// Write implements Backend.Write
func (s *SQLite) Write(userID string, kind Kind, data []byte) error {
	if err := checkUser(userID); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT INTO partitions (user_id, kind, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(kind), data, s.timeFunc().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: write %s for %q: %w", kind, userID, err)
	}
	return nil
}

// Clear implements Backend.Clear
func (s *SQLite) Clear(userID string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM partitions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: clear %q: %w", userID, err)
	}
	return nil
}

// ClearAll implements Backend.ClearAll
func (s *SQLite) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM partitions`); err != nil {
		return fmt.Errorf("sqlite: clear all: %w", err)
	}
	return nil
}

// Close implements Backend.Close
func (s *SQLite) Close() error {
	return s.db.Close()
}
