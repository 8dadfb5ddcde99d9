package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
`

// SQLite stores the blob in a single-row key-value table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init kv schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// ReadAll implements Adapter.
func (s *SQLite) ReadAll(ctx context.Context) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", Key, err)
	}

	if blob == nil {
		blob = []byte{}
	}
	return blob, true, nil
}

// WriteAll implements Adapter.
func (s *SQLite) WriteAll(ctx context.Context, blob []byte) error {
	if blob == nil {
		blob = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		Key, blob)
	if err != nil {
		return fmt.Errorf("write %s: %w", Key, err)
	}
	return nil
}

// Close implements Adapter.
func (s *SQLite) Close() error {
	return s.db.Close()
}
