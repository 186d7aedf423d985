package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
)

// ReadRun returns a run with its results in recording order. Explanations
// are in rank order and changes in their original order.
//
// Returns ErrRunNotFound (wrapped) for an unknown run.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, []StoredResult, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, test_case, description, summary, attributes
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query results: %w", err)
	}

	var (
		ids     []int64
		results = []StoredResult{}
	)
	for rows.Next() {
		var (
			id         int64
			r          StoredResult
			key        string
			attributes string
		)
		if err := rows.Scan(&id, &r.Seq, &key, &r.Description, &r.TestCase, &attributes); err != nil {
			rows.Close()
			return Run{}, nil, fmt.Errorf("scan result: %w", err)
		}
		r.Key = harness.Key(key)
		if err := json.Unmarshal([]byte(attributes), &r.Attributes); err != nil {
			rows.Close()
			return Run{}, nil, fmt.Errorf("result %s: attributes: %w", key, err)
		}
		ids = append(ids, id)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Run{}, nil, fmt.Errorf("iterate results: %w", err)
	}
	rows.Close()

	// Nested reads run after the cursor is closed: the pool has one connection.
	for i, id := range ids {
		if results[i].Checkpoints, err = s.readCheckpoints(ctx, id); err != nil {
			return Run{}, nil, err
		}
		if results[i].Explanations, err = s.readExplanations(ctx, id); err != nil {
			return Run{}, nil, err
		}
	}
	return run, results, nil
}

func (s *Store) readCheckpoints(ctx context.Context, resultID int64) ([]harness.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, at FROM checkpoints WHERE result_id = ? ORDER BY position ASC
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	checkpoints := []harness.Checkpoint{}
	for rows.Next() {
		var cp harness.Checkpoint
		var at string
		if err := rows.Scan(&cp.Name, &at); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if cp.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("checkpoint %s: %w", cp.Name, err)
		}
		checkpoints = append(checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return checkpoints, nil
}

func (s *Store) readExplanations(ctx context.Context, resultID int64) ([]StoredExplanation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.position, e.individual, e.proximity, e.fingerprint, c.payload
		FROM explanations e
		LEFT JOIN changes c ON c.explanation_id = e.id
		WHERE e.result_id = ?
		ORDER BY e.position ASC, c.position ASC
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query explanations: %w", err)
	}
	defer rows.Close()

	explanations := []StoredExplanation{}
	lastID := int64(-1)
	for rows.Next() {
		var (
			id          int64
			rank        int
			individual  string
			proximity   float64
			fingerprint string
			payload     sql.NullString
		)
		if err := rows.Scan(&id, &rank, &individual, &proximity, &fingerprint, &payload); err != nil {
			return nil, fmt.Errorf("scan explanation: %w", err)
		}

		if id != lastID {
			explanations = append(explanations, StoredExplanation{
				Rank:        rank,
				Fingerprint: fingerprint,
				Explanation: ir.NewExplanation(individual, nil, proximity),
			})
			lastID = id
		}
		if !payload.Valid {
			continue
		}

		var c ir.AssertionChange
		if err := json.Unmarshal([]byte(payload.String), &c); err != nil {
			return nil, fmt.Errorf("explanation #%d: change: %w", rank+1, err)
		}
		cur := &explanations[len(explanations)-1].Explanation
		cur.Changes = append(cur.Changes, c)
		cur.Sparsity = len(cur.Changes)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate explanations: %w", err)
	}
	return explanations, nil
}

// ReadReports returns the reports of a run in recording order.
//
// Returns an empty slice (not nil) if the run has no reports.
func (s *Store) ReadReports(ctx context.Context, runID string) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT analyzer, text, data FROM reports WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []StoredReport{}
	for rows.Next() {
		var (
			r    StoredReport
			data sql.NullString
		)
		if err := rows.Scan(&r.Analyzer, &r.Text, &data); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if data.Valid {
			r.Data = json.RawMessage(data.String)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
