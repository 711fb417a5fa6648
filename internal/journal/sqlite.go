package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lh-go/internal/journal/migrations"
	"lh-go/internal/lh"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements Journal on SQLite.
type SQLiteJournal struct {
	db    *sql.DB
	path  string
	clock lh.Clock
	ids   lh.IDGenerator
}

// NewSQLiteJournal opens the journal at path, or ":memory:", and migrates it to the latest schema.
// If clock or ids is nil, the real clock and UUIDs are used.
func NewSQLiteJournal(path string, clock lh.Clock, ids lh.IDGenerator) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	if clock == nil {
		clock = lh.RealClock{}
	}
	if ids == nil {
		ids = lh.UUIDGenerator{}
	}
	return &SQLiteJournal{db: db, path: path, clock: clock, ids: ids}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Path returns the database path the journal was opened with.
func (j *SQLiteJournal) Path() string { return j.path }

func (j *SQLiteJournal) Record(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = j.ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.clock.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, original_path, archive_path, label, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.OriginalPath, e.ArchivePath, e.Label, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", e.Kind, err)
	}
	return nil
}

func (j *SQLiteJournal) List(ctx context.Context, f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.OriginalPath != "" {
		where = append(where, "original_path = ?")
		args = append(args, f.OriginalPath)
	}

	query := "SELECT id, kind, original_path, archive_path, label, created_at FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// rowid breaks ties between events recorded in the same second.
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.OriginalPath, &e.ArchivePath, &e.Label, &created); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Kind = Kind(kind)
		e.CreatedAt = time.Unix(created, 0)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

var _ Journal = (*SQLiteJournal)(nil)
