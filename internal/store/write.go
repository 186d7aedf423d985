package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
)

// WriteResult records one test case result with its ranked explanations and
// checkpoints in a single transaction. An invalid explanation aborts the
// whole write.
//
// Uses ON CONFLICT(run_id, test_case) DO NOTHING for idempotency: writing a
// result for a test case already recorded in the run keeps the first.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteResult(ctx context.Context, runID string, result harness.ProgramResult) error {
	tc := result.TestCase()
	meta := result.Meta()

	attributes, err := marshalAttributes(meta.Attributes)
	if err != nil {
		return fmt.Errorf("write result %s: %w", tc.Key(), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write result %s: begin tx: %w", tc.Key(), err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO results (run_id, seq, test_case, description, summary, attributes)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM results WHERE run_id = ?
		ON CONFLICT(run_id, test_case) DO NOTHING
	`, runID, string(tc.Key()), tc.Description(), tc.String(), attributes, runID)
	if err != nil {
		return fmt.Errorf("write result %s: %w", tc.Key(), err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write result %s: rows affected: %w", tc.Key(), err)
	}
	if inserted == 0 {
		return nil
	}

	resultID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("write result %s: last insert id: %w", tc.Key(), err)
	}

	for i, cp := range meta.Checkpoints {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checkpoints (result_id, position, name, at) VALUES (?, ?, ?, ?)
		`, resultID, i, cp.Name, formatTime(cp.At)); err != nil {
			return fmt.Errorf("write result %s: checkpoint %s: %w", tc.Key(), cp.Name, err)
		}
	}

	for rank, e := range result.Explanations() {
		if err := writeExplanation(ctx, tx, resultID, rank, e); err != nil {
			return fmt.Errorf("write result %s: explanation #%d: %w", tc.Key(), rank+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write result %s: commit: %w", tc.Key(), err)
	}
	return nil
}

func writeExplanation(ctx context.Context, tx *sql.Tx, resultID int64, rank int, e ir.Explanation) error {
	if err := e.Validate(); err != nil {
		return err
	}
	fingerprint, err := e.Fingerprint()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO explanations (result_id, position, individual, proximity, sparsity, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?)
	`, resultID, rank, e.Individual, e.Proximity, e.Sparsity, fingerprint)
	if err != nil {
		return err
	}
	explanationID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, c := range e.Changes {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO changes (explanation_id, position, type, property, payload)
			VALUES (?, ?, ?, ?, ?)
		`, explanationID, i, string(c.Type), c.Property, string(payload)); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

// WriteReport records the final report of one analyzer.
// Uses ON CONFLICT(run_id, analyzer) DO NOTHING for idempotency.
func (s *Store) WriteReport(ctx context.Context, runID string, report harness.Report) error {
	var data sql.NullString
	if report.Data != nil {
		b, err := json.Marshal(report.Data)
		if err != nil {
			return fmt.Errorf("write report %s: marshal data: %w", report.Analyzer, err)
		}
		data = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (run_id, seq, analyzer, text, data)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?
		FROM reports WHERE run_id = ?
		ON CONFLICT(run_id, analyzer) DO NOTHING
	`, runID, report.Analyzer, report.Text, data, runID)
	if err != nil {
		return fmt.Errorf("write report %s: %w", report.Analyzer, err)
	}
	return nil
}

// marshalAttributes encodes metadata attributes as canonical JSON so equal
// maps store identical text.
func marshalAttributes(attrs map[string]string) (string, error) {
	obj := make(map[string]any, len(attrs))
	for k, v := range attrs {
		obj[k] = v
	}
	b, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(b), nil
}
