package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS backups (
	key      TEXT PRIMARY KEY,
	client   TEXT NOT NULL,
	payload  TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backups_client ON backups(client);`

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore keeps backups in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// Pragmas are per connection and ":memory:" is per connection too.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: ping: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save upserts rec under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, rec Record) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (key, client, payload, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET client = excluded.client,
		   payload = excluded.payload, saved_at = excluded.saved_at`,
		key, rec.ClienteNome, strings.TrimSpace(buf.String()), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save backup %s: %w", key, err)
	}
	return nil
}

// Load reads the backup stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) (Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM backups WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load backup %s: %w", key, err)
	}
	return Decode(strings.NewReader(payload))
}

// List returns the stored backups, filtered by client when given.
func (s *SQLiteStore) List(ctx context.Context, client string) ([]Entry, error) {
	query := `SELECT key, client, saved_at FROM backups`
	var args []any
	if client != "" {
		query += ` WHERE client = ?`
		args = append(args, client)
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			savedAt int64
		)
		if err := rows.Scan(&e.Key, &e.Client, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup row: %w", err)
		}
		e.SavedAt = time.UnixMilli(savedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
