// Package history keeps every finished pipeline run in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pipeline    TEXT NOT NULL,
	event       TEXT NOT NULL,
	branch      TEXT NOT NULL,
	status      TEXT NOT NULL,
	state       TEXT NOT NULL,
	failed_step TEXT NOT NULL,
	category    TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	exit_code   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	note        TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Store is a run history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history tables: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode=WAL;")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL;")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished run and its step results.
func (s *Store) Record(ctx context.Context, run runner.LastRun, results []runner.StepResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, event, branch, status, state, failed_step, category, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Pipeline, run.Event, run.Branch, run.Status, string(run.State),
		run.FailedStep, run.Category, formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}

	for i, res := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO steps (run_id, position, name, stage, status, exit_code, duration_ms, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, i, res.Step, string(res.Stage), string(res.Status), res.ExitCode, res.DurationMS, res.Note,
		)
		if err != nil {
			return fmt.Errorf("inserting step %q of run %s: %w", res.Step, run.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.RunID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]runner.LastRun, error) {
	query := `SELECT id, pipeline, event, branch, status, state, failed_step, category, started_at, finished_at
	          FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []runner.LastRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its ordered step names.
func (s *Store) Get(ctx context.Context, id string) (runner.LastRun, []runner.StepResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline, event, branch, status, state, failed_step, category, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return runner.LastRun{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return runner.LastRun{}, nil, err
	}

	results, err := s.steps(ctx, id)
	if err != nil {
		return runner.LastRun{}, nil, err
	}
	for _, res := range results {
		run.Steps = append(run.Steps, res.Step)
	}
	return run, results, nil
}

func (s *Store) steps(ctx context.Context, runID string) ([]runner.StepResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, stage, status, exit_code, duration_ms, note
		 FROM steps WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading steps of run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []runner.StepResult
	for rows.Next() {
		var res runner.StepResult
		var stage, status string
		if err := rows.Scan(&res.Step, &stage, &status, &res.ExitCode, &res.DurationMS, &res.Note); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		res.Stage = pipeline.Stage(stage)
		res.Status = runner.StepStatus(status)
		results = append(results, res)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (runner.LastRun, error) {
	var run runner.LastRun
	var state, started, finished string
	err := sc.Scan(&run.RunID, &run.Pipeline, &run.Event, &run.Branch, &run.Status, &state,
		&run.FailedStep, &run.Category, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning run: %w", err)
	}
	run.State = pipeline.State(state)
	if run.StartedAt, err = parseTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return run, err
	}
	return run, nil
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}
