// Package journal keeps an optional SQLite record of tool calls.
//
// The journal is diagnostic only: nothing reads it back into the session, and
// a failed write never fails the call it describes.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/layout-tools-mcp/internal/ids"
)

// Entry is one journaled tool call.
type Entry struct {
	ID        string
	RequestID string
	Tool      string
	Success   bool
	// ErrorKind is the failure class of an unsuccessful call, empty otherwise.
	ErrorKind string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store owns the journal database.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the underlying SQLite file path.
func (s *Store) Path() string {
	return s.path
}

// Open opens or creates the journal at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; the server handles one request at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES ('schemaVersion','1');`,
		`CREATE TABLE IF NOT EXISTS tool_calls (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			tool TEXT NOT NULL,
			success INTEGER NOT NULL CHECK (success IN (0,1)),
			error_kind TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_created ON tool_calls(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Record stores e, filling ID and CreatedAt when they are empty.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return errors.New("nil journal")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.ID == "" {
		e.ID = ids.At(e.CreatedAt)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_calls(id, request_id, tool, success, error_kind, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`, e.ID, e.RequestID, e.Tool, boolToInt(e.Success), e.ErrorKind, e.Duration.Milliseconds(), e.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record tool call: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, tool, success, error_kind, duration_ms, created_at
		FROM tool_calls
		ORDER BY created_at DESC, id DESC
		LIMIT ?;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query tool calls: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			success    int
			durationMs int64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &success, &e.ErrorKind, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		e.Success = success == 1
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Counts returns the number of journaled calls per tool.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tool, COUNT(*) FROM tool_calls GROUP BY tool;`)
	if err != nil {
		return nil, fmt.Errorf("count tool calls: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			tool string
			n    int
		)
		if err := rows.Scan(&tool, &n); err != nil {
			return nil, fmt.Errorf("scan tool count: %w", err)
		}
		out[tool] = n
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
