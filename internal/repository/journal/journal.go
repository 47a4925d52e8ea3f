// Package journal records every handled power transition in a small SQLite
// database so an operator can reconstruct what the engine did and when.
// The journal is optional; the engine runs fine without one.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.

	"github.com/showard/powerd/internal/domain/power"
)

// Outcome describes how a recorded sequence resolved.
type Outcome string

const (
	// OutcomeCompleted means the full script ran and the state was persisted.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCancelled means the sequence was aborted at the wait point.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomePartial means the script finished with one or more step failures.
	OutcomePartial Outcome = "partial"
)

const (
	// dirPermissions is the permission mode for a created journal directory.
	dirPermissions = 0o750
	// busyTimeoutMs bounds waiting on a locked database file.
	busyTimeoutMs = 5000
	// defaultRecentLimit caps Recent queries without an explicit limit.
	defaultRecentLimit = 50
)

// Entry is one recorded transition.
type Entry struct {
	// ID is assigned by the database.
	ID int64
	// Direction is the handled transition direction.
	Direction power.Direction
	// From and To are the signals around the transition.
	From power.Signal
	To   power.Signal
	// ColdStart reports whether the cold-start branch ran in this sequence.
	ColdStart bool
	// Outcome is how the sequence resolved.
	Outcome Outcome
	// CreatedAt is when the entry was recorded, UTC.
	CreatedAt time.Time
}

// Journal writes and reads transition entries.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	direction  TEXT    NOT NULL,
	from_mark  TEXT    NOT NULL,
	to_mark    TEXT    NOT NULL,
	cold_start INTEGER NOT NULL,
	outcome    TEXT    NOT NULL,
	created_at TEXT    NOT NULL
);`

// Open creates or opens the journal database at the provided path,
// creating the parent directory when needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyTimeoutMs))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record inserts one entry. A zero CreatedAt is filled with the current time.
func (j *Journal) Record(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := j.db.ExecContext(ctx,
		`INSERT INTO transitions (direction, from_mark, to_mark, cold_start, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.Direction), entry.From.Mark(), entry.To.Mark(),
		entry.ColdStart, string(entry.Outcome),
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}

	entry.ID, _ = result.LastInsertId()

	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, direction, from_mark, to_mark, cold_start, outcome, created_at
		 FROM transitions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry

	for rows.Next() {
		var (
			entry                                   Entry
			direction, from, to, outcome, createdAt string
		)

		if err = rows.Scan(&entry.ID, &direction, &from, &to, &entry.ColdStart, &outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}

		entry.Direction = power.Direction(direction)
		entry.Outcome = Outcome(outcome)

		if entry.From, err = power.ParseSignal(from); err != nil {
			return nil, fmt.Errorf("parse from mark: %w", err)
		}

		if entry.To, err = power.ParseSignal(to); err != nil {
			return nil, fmt.Errorf("parse to mark: %w", err)
		}

		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return entries, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}

	return j.db.Close()
}
