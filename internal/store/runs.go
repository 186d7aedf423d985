package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BeginRun records a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	id := s.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, batch, algorithm, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, info.Batch, info.Algorithm, string(RunRunning), s.now())
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run with its final status and failure count.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, failures int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, failures = ?
		WHERE id = ?
	`, string(status), s.now(), failures, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns every run, oldest first.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, runSelect+`
		GROUP BY r.id
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+`
		WHERE r.id = ?
		GROUP BY r.id
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

const runSelect = `
	SELECT r.id, r.batch, r.algorithm, r.status, r.started_at, r.finished_at,
	       r.failures, COUNT(res.id)
	FROM runs r
	LEFT JOIN results res ON res.run_id = r.id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		status   string
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Batch, &run.Algorithm, &status, &started, &finished, &run.Failures, &run.Results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)

	t, err := parseTime(started)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: parse started_at: %w", run.ID, err)
	}
	run.StartedAt = t

	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("run %s: parse finished_at: %w", run.ID, err)
		}
		run.FinishedAt = &t
	}
	return run, nil
}
