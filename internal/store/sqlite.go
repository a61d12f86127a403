package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caseflow-dev/caseflow/internal/journal"
)

// Timestamps are stored in UTC with nanosecond precision so archive ordering
// survives rapid successive runs.
const timeFormat = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS active_run (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	run_id TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_archive (
	run_id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	status TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	started_at TEXT NOT NULL,
	archived_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_archive_archived_at ON run_archive(archived_at DESC);

CREATE TABLE IF NOT EXISTS global_directives (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	snapshot TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLite persists journal snapshots in a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal database at the given path.
// The parent directory is created if it doesn't exist.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// OpenInMemory opens an isolated in-memory SQLite database. Faster than
// file-based databases and ideal for testing the SQL paths.
func OpenInMemory() (*SQLite, error) {
	return Open(":memory:")
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *SQLite) Path() string {
	return s.path
}

// SaveActiveRun implements journal.Store.
func (s *SQLite) SaveActiveRun(run *journal.Run) error {
	snapshot, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO active_run (slot, run_id, snapshot, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET run_id = excluded.run_id,
			snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, run.ID, string(snapshot), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("save active run: %w", err)
	}
	return nil
}

// ClearActiveRun implements journal.Store.
func (s *SQLite) ClearActiveRun() error {
	if _, err := s.db.Exec(`DELETE FROM active_run WHERE slot = 1`); err != nil {
		return fmt.Errorf("clear active run: %w", err)
	}
	return nil
}

// LoadActiveRun implements journal.Store.
func (s *SQLite) LoadActiveRun() (*journal.Run, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT snapshot FROM active_run WHERE slot = 1`).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active run: %w", err)
	}

	var run journal.Run
	if err := json.Unmarshal([]byte(snapshot), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run snapshot: %w", err)
	}
	return &run, nil
}

// ArchiveRun implements journal.Store.
func (s *SQLite) ArchiveRun(run *journal.Run) error {
	snapshot, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO run_archive (run_id, case_id, status, snapshot, started_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET status = excluded.status,
			snapshot = excluded.snapshot, archived_at = excluded.archived_at
	`, run.ID, run.CaseID, string(run.Status), string(snapshot),
		run.StartedAt.UTC().Format(timeFormat), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}

// LoadHistory implements journal.Store.
func (s *SQLite) LoadHistory(limit int) ([]*journal.Run, error) {
	query := `SELECT snapshot FROM run_archive ORDER BY archived_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*journal.Run
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("scan archived run: %w", err)
		}
		var run journal.Run
		if err := json.Unmarshal([]byte(snapshot), &run); err != nil {
			return nil, fmt.Errorf("unmarshal archived run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run archive: %w", err)
	}
	return runs, nil
}

// SaveGlobalDirectives implements journal.Store.
func (s *SQLite) SaveGlobalDirectives(directives []journal.ScopeDirective) error {
	snapshot, err := json.Marshal(directives)
	if err != nil {
		return fmt.Errorf("marshal directives: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO global_directives (slot, snapshot, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, string(snapshot), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("save global directives: %w", err)
	}
	return nil
}

// LoadGlobalDirectives implements journal.Store.
func (s *SQLite) LoadGlobalDirectives() ([]journal.ScopeDirective, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT snapshot FROM global_directives WHERE slot = 1`).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load global directives: %w", err)
	}

	var directives []journal.ScopeDirective
	if err := json.Unmarshal([]byte(snapshot), &directives); err != nil {
		return nil, fmt.Errorf("unmarshal directives: %w", err)
	}
	return directives, nil
}

// Both backends must satisfy the journal's store contract.
var (
	_ journal.Store = (*SQLite)(nil)
	_ journal.Store = (*Memory)(nil)
)
