// Package drafts keeps unsaved editor buffers in SQLite so they survive
// leaving the editor or quitting.
package drafts

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned by Get when no draft exists.
var ErrNotFound = errors.New("draft not found")

// Draft is an unsaved buffer. BaseHash identifies the saved content the
// draft was started from.
type Draft struct {
	Filename  string
	FileType  string
	Content   string
	BaseHash  string
	UpdatedAt time.Time
}

// Stale reports whether the saved file changed since the draft was started.
func (d Draft) Stale(savedContent string) bool {
	return d.BaseHash != "" && d.BaseHash != Hash(savedContent)
}

// Hash fingerprints saved content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}

// Store persists drafts keyed by filename.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the drafts database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create drafts directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open drafts database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping drafts database: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS drafts (
		filename TEXT PRIMARY KEY,
		file_type TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		base_hash TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create drafts table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the draft for d.Filename.
func (s *Store) Save(ctx context.Context, d Draft) error {
	if d.Filename == "" {
		return fmt.Errorf("draft filename required")
	}
	query := `
	INSERT INTO drafts (filename, file_type, content, base_hash, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(filename) DO UPDATE SET
		file_type = excluded.file_type,
		content = excluded.content,
		base_hash = excluded.base_hash,
		updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, d.Filename, d.FileType, d.Content, d.BaseHash, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.Filename, err)
	}
	return nil
}

// Get returns the draft for filename or ErrNotFound.
func (s *Store) Get(ctx context.Context, filename string) (*Draft, error) {
	query := `SELECT filename, file_type, content, base_hash, updated_at FROM drafts WHERE filename = ?`
	d, err := scanDraft(s.db.QueryRowContext(ctx, query, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", filename, err)
	}
	return d, nil
}

// List returns all drafts, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Draft, error) {
	query := `SELECT filename, file_type, content, base_hash, updated_at FROM drafts ORDER BY updated_at DESC, filename`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("list drafts: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Delete removes the draft for filename. Missing drafts are not an error.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("delete draft %s: %w", filename, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*Draft, error) {
	var d Draft
	var updated int64
	if err := row.Scan(&d.Filename, &d.FileType, &d.Content, &d.BaseHash, &updated); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Unix(0, updated)
	return &d, nil
}
