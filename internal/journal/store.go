// Package journal keeps an append-only history of sync outcomes in
// SQLite. The reconciliation state itself lives in the documents and
// backends; the journal is an audit trail and is never consulted when
// computing deltas.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry records the outcome of one target within one run.
type Entry struct {
	ID      int64     `json:"id"`
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Target  string    `json:"target"`
	Kind    string    `json:"kind"`
	Changed bool      `json:"changed"`
	Added   []string  `json:"added,omitempty"`
	Removed []string  `json:"removed,omitempty"`
	Regions int       `json:"regions,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Filter narrows a Query. Zero values mean no constraint.
type Filter struct {
	Since       time.Time
	Until       time.Time
	Target      string
	RunID       string
	OnlyChanged bool
	Limit       int
}

// Store provides persistent storage for sync outcomes.
type Store struct {
	mu            sync.RWMutex
	db            *sql.DB
	retentionDays int
}

// NewStore creates a journal store at the given path.
func NewStore(dbPath string, retentionDays int) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sync_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			started DATETIME NOT NULL,
			target TEXT NOT NULL,
			kind TEXT NOT NULL,
			changed INTEGER NOT NULL DEFAULT 0,
			added TEXT,
			removed TEXT,
			regions INTEGER DEFAULT 0,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_outcomes_started ON sync_outcomes(started);
		CREATE INDEX IF NOT EXISTS idx_outcomes_target ON sync_outcomes(target);
		CREATE INDEX IF NOT EXISTS idx_outcomes_run ON sync_outcomes(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = 90 // Default 90 days
	}

	return &Store{
		db:            db,
		retentionDays: retentionDays,
	}, nil
}

// Record persists one outcome.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Started.IsZero() {
		e.Started = time.Now()
	}

	added, err := marshalItems(e.Added)
	if err != nil {
		return err
	}
	removed, err := marshalItems(e.Removed)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_outcomes (run_id, started, target, kind, changed, added, removed, regions, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Started, e.Target, e.Kind, e.Changed, added, removed, e.Regions, e.Error)

	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func marshalItems(items []string) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	return string(data), nil
}

// Query returns outcomes matching the filter, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, run_id, started, target, kind, changed, added, removed, regions, error
		FROM sync_outcomes WHERE 1=1`
	var args []any

	if !f.Since.IsZero() {
		query += " AND started >= ?"
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		query += " AND started <= ?"
		args = append(args, f.Until)
	}
	if f.Target != "" {
		query += " AND target = ?"
		args = append(args, f.Target)
	}
	if f.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, f.RunID)
	}
	if f.OnlyChanged {
		query += " AND changed = 1"
	}

	query += " ORDER BY started DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var added, removed, errText sql.NullString

		err := rows.Scan(&e.ID, &e.RunID, &e.Started, &e.Target, &e.Kind,
			&e.Changed, &added, &removed, &e.Regions, &errText)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}

		if added.Valid && added.String != "" {
			json.Unmarshal([]byte(added.String), &e.Added)
		}
		if removed.Valid && removed.String != "" {
			json.Unmarshal([]byte(removed.String), &e.Removed)
		}
		if errText.Valid {
			e.Error = errText.String
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Prune removes outcomes older than the retention period.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	result, err := s.db.ExecContext(ctx, "DELETE FROM sync_outcomes WHERE started < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}

	return result.RowsAffected()
}

// Count returns the total number of outcomes in the store.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_outcomes").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
