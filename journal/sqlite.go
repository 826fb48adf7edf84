// Package journal keeps a log of the view states a controller went through.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"weather-state/viewstate"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one recorded transition
type Entry struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Reason string    `json:"reason,omitempty"`
	Days   int       `json:"days"`
	At     time.Time `json:"at"`
}

// Store is what the API and the recorder need from a journal
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// SQLiteStore implements Store on the pure Go modernc.org/sqlite driver
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("warning: could not set WAL mode:", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS transitions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		reason TEXT,
		days INTEGER NOT NULL,
		at TEXT NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record appends an entry, filling in ID and At when empty
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO transitions(id, status, reason, days, at) VALUES(?,?,?,?,?)`,
		e.ID, e.Status, e.Reason, e.Days, e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, status, reason, days, at FROM transitions ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e      Entry
			reason sql.NullString
			at     string
		)
		if err := rows.Scan(&e.ID, &e.Status, &reason, &e.Days, &at); err != nil {
			return nil, err
		}
		e.Reason = reason.String
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.At = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EntryFor converts a view state into a journal entry stamped with the time
// the state was entered, or now for a state that was never published
func EntryFor(v viewstate.ViewState) Entry {
	at := v.At
	if at.IsZero() {
		at = time.Now()
	}
	return Entry{
		ID:     uuid.New().String(),
		Status: v.Status.String(),
		Reason: v.Reason(),
		Days:   len(v.Days),
		At:     at,
	}
}

// Recorder returns an observer that writes every state it sees to store.
// Write failures are logged and otherwise ignored.
func Recorder(store Store, logger *log.Logger) viewstate.Observer {
	if logger == nil {
		logger = log.Default()
	}
	return func(v viewstate.ViewState) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Record(ctx, EntryFor(v)); err != nil {
			logger.Printf("Error journaling %s state: %v", v.Status, err)
		}
	}
}

var _ Store = (*SQLiteStore)(nil)
