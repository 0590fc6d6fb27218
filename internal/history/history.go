// Package history provides durable storage for verification runs.
//
// Uses SQLite with WAL mode. The ledger answers "what is this model's
// status now"; history answers "what happened on every run", including
// runs whose outcome was later superseded.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (runs table plus model/batch indexes)
const currentSchemaVersion = 1

const defaultRecentLimit = 20

// RunRecord is one verification run.
type RunRecord struct {
	ID         string
	BatchID    string
	Model      string
	Seed       int
	Status     string
	Accuracy   float64
	Reason     string
	DurationMS int64
	CreatedAt  time.Time
}

// IDGenerator produces run record IDs.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ordering by
// id breaks created_at ties in insertion order.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store provides durable storage for run history.
type Store struct {
	db  *sql.DB
	ids IDGenerator
	now func() time.Time
}

// Open creates or opens the history database at the given path, creating
// parent directories as needed. Applies required pragmas and migrations
// automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent. Safe to call multiple times.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors under concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, ids: UUIDv7Generator{}, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetIDGenerator overrides the run ID source. Tests use a deterministic
// sequence generator.
func (s *Store) SetIDGenerator(g IDGenerator) {
	s.ids = g
}

// SetClock overrides the timestamp source for created_at values.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Append inserts one run record and returns its ID.
//
// A blank ID is filled from the ID generator and a zero CreatedAt from
// the clock. Uses ON CONFLICT(id) DO NOTHING for idempotency, so writing
// the same record twice leaves a single row.
func (s *Store) Append(ctx context.Context, rec RunRecord) (string, error) {
	if rec.Model == "" {
		return "", fmt.Errorf("append run: model is required")
	}
	if rec.ID == "" {
		rec.ID = s.ids.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, batch_id, model, seed, status, accuracy, reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.BatchID,
		rec.Model,
		rec.Seed,
		rec.Status,
		rec.Accuracy,
		rec.Reason,
		rec.DurationMS,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("append run: %w", err)
	}
	return rec.ID, nil
}

// Recent returns the newest runs, most recent first. An empty model
// returns runs across all models. A non-positive limit uses the default
// of 20.
//
// Ties on created_at are broken by id, which is time-sortable, so runs
// appended within the same second still come back in insertion order.
//
// Returns an empty slice (not nil) when no runs match.
func (s *Store) Recent(ctx context.Context, model string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
		SELECT id, batch_id, model, seed, status, accuracy, reason, duration_ms, created_at
		FROM runs
	`
	var args []any
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var r RunRecord
		var created string
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Model, &r.Seed, &r.Status, &r.Accuracy, &r.Reason, &r.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if recs == nil {
		recs = []RunRecord{}
	}
	return recs, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and tracks the schema
// version. This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d)", version, currentSchemaVersion)
	}

	// No incremental migrations yet; schema.sql carries the full layout.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
