package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/analysis"
	"github.com/roach88/cfeval/internal/store"
	"github.com/roach88/cfeval/internal/testutil"
)

const (
	testBatch  = "testdata/batch.yaml"
	testReplay = "testdata/replay.yaml"
)

// runCLI executes the run command with a deterministic clock and run IDs.
func runCLI(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Clock:       testutil.NewFakeClock(time.Second),
		IDGenerator: testutil.NewSequentialIDGenerator("run"),
	}
	cmd := newRunCommand(opts)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return buf.String(), err
}

func TestRunCommand_TextReports(t *testing.T) {
	out, err := runCLI(t, "text", "--algorithm", testReplay, testBatch)
	require.NoError(t, err)

	// Progress is printed per test case, in batch order.
	first := bytes.Index([]byte(out), []byte("✓ 1: 2 explanation(s)"))
	second := bytes.Index([]byte(out), []byte("✓ 2: 0 explanation(s)"))
	require.GreaterOrEqual(t, first, 0, out)
	assert.Greater(t, second, first)

	assert.Contains(t, out, "Ranking analysis:")
	assert.Contains(t, out, "Explanation #1 (expected)")
	assert.Contains(t, out, "Explanation #2 (expected)")
	assert.Contains(t, out, "Matched: 1/2")
	assert.Contains(t, out, "Mean reciprocal rank: 0.500")
	assert.Contains(t, out, "Performance analysis:")
	assert.Contains(t, out, "Example (1):")
	assert.Contains(t, out, "materialized => generated")
	assert.NotContains(t, out, "Run recorded")
}

func TestRunCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "json", "--algorithm", testReplay, testBatch)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output is a single JSON document")
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Results)
	assert.Empty(t, resp.Data.RunID)
	require.Len(t, resp.Data.Reports, 2)
	assert.Equal(t, analysis.RankingName, resp.Data.Reports[0].Analyzer)
	assert.Equal(t, analysis.PerformanceName, resp.Data.Reports[1].Analyzer)
	assert.Contains(t, resp.Data.Reports[0].Text, "Matched: 1/2")
}

func TestRunCommand_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")

	out, err := runCLI(t, "text", "--algorithm", testReplay, "--db", db, "--verify", testBatch)
	require.NoError(t, err)
	assert.Contains(t, out, "Run recorded: run-0001")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, results, err := st.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, store.RunCompleted, run.Status)
	assert.Equal(t, "recorded", run.Algorithm)
	assert.Equal(t, testBatch, run.Batch)
	assert.Equal(t, 0, run.Failures)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Explanations, 2)
	assert.Empty(t, results[1].Explanations)

	reports, err := st.ReadReports(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, analysis.RankingName, reports[0].Analyzer)
}

func TestRunCommand_VerifyRejectsInconsistentBatch(t *testing.T) {
	out, err := runCLI(t, "text", "--algorithm", testReplay, "--verify", "testdata/inconsistent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
	assert.Contains(t, out, "clash")
	assert.NotContains(t, out, "Ranking analysis:")
}

func TestRunCommand_AbortOnFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")

	out, err := runCLI(t, "text", "--algorithm", testReplay, "--db", db, "testdata/unresolvable.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")
	assert.Contains(t, out, "pineapple")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), "run-0001")
	require.NoError(t, err)
	assert.Equal(t, store.RunFailed, run.Status)
	assert.Equal(t, 1, run.Results, "results before the failure are kept")
}

func TestRunCommand_SkipOnFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")

	out, err := runCLI(t, "text", "--algorithm", testReplay, "--db", db, "--on-failure", "skip", "testdata/unresolvable.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 test case(s) skipped")

	assert.Contains(t, out, "✓ ok: 0 explanation(s)")
	assert.Contains(t, out, "✗ test case pineapple skipped")
	assert.Contains(t, out, "Ranking analysis:")
	assert.Contains(t, out, "Matched: 0/1")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), "run-0001")
	require.NoError(t, err)
	assert.Equal(t, store.RunCompleted, run.Status)
	assert.Equal(t, 1, run.Failures)
	assert.Equal(t, 1, run.Results)
}

func TestRunCommand_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing batch", []string{"--algorithm", testReplay, "testdata/missing.yaml"}, ErrCodeNotFound},
		{"invalid batch", []string{"--algorithm", testReplay, "testdata/invalid.yaml"}, ErrCodeBatchInvalid},
		{"duplicate keys", []string{"--algorithm", testReplay, "testdata/duplicates.yaml"}, ErrCodeDuplicateKey},
		{"missing algorithm output", []string{"--algorithm", "testdata/missing-replay.yaml", testBatch}, ErrCodeAlgorithm},
		{"bad policy", []string{"--algorithm", testReplay, "--on-failure", "retry", testBatch}, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "json", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRunCommand_RequiresAlgorithm(t *testing.T) {
	_, err := runCLI(t, "text", testBatch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "algorithm" not set`)
}
