package store

import (
	"context"

	"github.com/roach88/cfeval/internal/harness"
)

// Recorder streams the results and reports of one run into the store.
type Recorder struct {
	store *Store
	runID string
}

var _ harness.ResultSink = (*Recorder)(nil)

// Recorder returns a sink writing into the given run.
func (s *Store) Recorder(runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// WriteResult implements harness.ResultSink.
func (r *Recorder) WriteResult(ctx context.Context, result harness.ProgramResult) error {
	return r.store.WriteResult(ctx, r.runID, result)
}

// WriteReport implements harness.ResultSink.
func (r *Recorder) WriteReport(ctx context.Context, report harness.Report) error {
	return r.store.WriteReport(ctx, r.runID, report)
}
