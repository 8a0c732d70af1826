package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded suite run.
type Run struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Passed    bool          `json:"passed"`
}

// Result is one test's outcome within a run.
type Result struct {
	RunID       string        `json:"run_id"`
	Name        string        `json:"name"`
	Passed      bool          `json:"passed"`
	FailureKind string        `json:"failure_kind,omitempty"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// RecordSuite appends one run and its per-test results atomically.
func (s *Store) RecordSuite(ctx context.Context, run Run, results []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record suite: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, passed)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Duration.Milliseconds(), run.Passed)
	if err != nil {
		return fmt.Errorf("record suite run: %w", err)
	}

	for _, r := range results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO results (run_id, name, passed, failure_kind, message, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, r.Name, r.Passed, r.FailureKind, r.Message, r.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("record result %s: %w", r.Name, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the newest runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, passed
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.Passed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ResultsForRun returns every test result of one run, ordered by name.
func (s *Store) ResultsForRun(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, name, passed, failure_kind, message, duration_ms
		FROM results WHERE run_id = ? ORDER BY name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// HistoryForTest returns one test's results across runs, newest first.
func (s *Store) HistoryForTest(ctx context.Context, name string, limit int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.name, r.passed, r.failure_kind, r.message, r.duration_ms
		FROM results r JOIN runs ON runs.id = r.run_id
		WHERE r.name = ? ORDER BY runs.started_at DESC LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("test history: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.Name, &r.Passed, &r.FailureKind, &r.Message, &durationMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}
