package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path reports the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// RecordRun inserts a run together with its stage records in one transaction
// and returns the assigned run ID.
func (s *Store) RecordRun(ctx context.Context, run Run, stages []StageRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, status, source_images, validated, cost_usd, error)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Status,
		run.SourceImages,
		run.Validated,
		run.CostUSD,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for i, stage := range stages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_stages (run_id, stage, position, records, calls, input_tokens, output_tokens, elapsed_ms, cost_usd)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			stage.Stage,
			i,
			stage.Records,
			stage.Calls,
			stage.InputTokens,
			stage.OutputTokens,
			stage.Elapsed.Milliseconds(),
			stage.CostUSD,
		)
		if err != nil {
			return 0, fmt.Errorf("insert stage %s: %w", stage.Stage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, source_images, validated, cost_usd, error
         FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run              Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Status,
			&run.SourceImages, &run.Validated, &run.CostUSD, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunStages returns the stage records for a run in pipeline order.
func (s *Store) RunStages(ctx context.Context, runID int64) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, records, calls, input_tokens, output_tokens, elapsed_ms, cost_usd
         FROM run_stages WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var (
			stage     StageRecord
			elapsedMS int64
		)
		if err := rows.Scan(&stage.Stage, &stage.Records, &stage.Calls,
			&stage.InputTokens, &stage.OutputTokens, &elapsedMS, &stage.CostUSD); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stage.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}
