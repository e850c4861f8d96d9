package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mavwarf/iconset/internal/paths"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at path and creates
// tables and indexes.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection; keep a single one.
	db.SetMaxOpenConns(1)

	// Set PRAGMAs before any DDL.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    id        TEXT    PRIMARY KEY,
    started   TEXT    NOT NULL,
    finished  TEXT    NOT NULL DEFAULT '',
    source    TEXT    NOT NULL DEFAULT '',
    badge     TEXT    NOT NULL DEFAULT '',
    idioms    TEXT    NOT NULL DEFAULT '',
    prefix    TEXT    NOT NULL DEFAULT '',
    target    TEXT    NOT NULL DEFAULT '',
    entries   INTEGER NOT NULL DEFAULT 0,
    status    TEXT    NOT NULL,
    error     TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS outputs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    size        INTEGER NOT NULL,
    path        TEXT    NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    error       TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started DESC);
CREATE INDEX IF NOT EXISTS idx_outputs_run  ON outputs(run_id, size);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Begin(run Run) error {
	if run.ID == "" {
		return errors.New("history: run has no id")
	}
	if run.Started.IsZero() {
		run.Started = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started, source, badge, idioms, prefix, target, entries, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Started.UTC().Format(timeLayout), run.Source, run.Badge,
		run.Idioms, run.Prefix, run.Target, run.Entries, string(run.Status),
	)
	return err
}

func (s *SQLiteStore) Finish(id string, status Status, errMsg string, outputs []Output) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE runs SET finished = ?, status = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), string(status), errMsg, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("history: unknown run %q", id)
	}

	for _, o := range outputs {
		if _, err := tx.Exec(
			`INSERT INTO outputs (run_id, size, path, duration_ms, error) VALUES (?, ?, ?, ?, ?)`,
			id, o.Size, o.Path, o.Duration.Milliseconds(), o.Error,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Runs(limit int) ([]Run, error) {
	q := `SELECT id, started, finished, source, badge, idioms, prefix, target, entries, status, error
	      FROM runs ORDER BY started DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished, status string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Source, &r.Badge, &r.Idioms,
			&r.Prefix, &r.Target, &r.Entries, &status, &r.Error); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		if r.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("history: run %s: %w", r.ID, err)
		}
		if finished != "" {
			if r.Finished, err = time.Parse(timeLayout, finished); err != nil {
				return nil, fmt.Errorf("history: run %s: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Outputs(runID string) ([]Output, error) {
	rows, err := s.db.Query(
		`SELECT size, path, duration_ms, error FROM outputs WHERE run_id = ? ORDER BY size`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Output
	for rows.Next() {
		var o Output
		var ms int64
		if err := rows.Scan(&o.Size, &o.Path, &ms, &o.Error); err != nil {
			return nil, err
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM outputs`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM runs`)
	return err
}
