package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/store"
)

func executeCLI(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return buf.String(), err
}

// recordedDB runs the test batch once with --db and returns the database path.
func recordedDB(t *testing.T) string {
	t.Helper()

	db := filepath.Join(t.TempDir(), "results.db")
	_, err := runCLI(t, "text", "--algorithm", testReplay, "--db", db, testBatch)
	require.NoError(t, err)
	return db
}

func TestRunsCommand_Text(t *testing.T) {
	db := recordedDB(t)

	out, err := executeCLI(t, NewRunsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-0001")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "recorded")
}

func TestRunsCommand_JSON(t *testing.T) {
	db := recordedDB(t)

	out, err := executeCLI(t, NewRunsCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-0001", resp.Data[0].ID)
	assert.Equal(t, 2, resp.Data[0].Results)
	assert.NotNil(t, resp.Data[0].FinishedAt)
}

func TestRunsCommand_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeCLI(t, NewRunsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded\n", out)
}

func TestRunsCommand_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")

	out, err := executeCLI(t, NewRunsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestShowCommand_Reports(t *testing.T) {
	db := recordedDB(t)

	out, err := executeCLI(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", db, "run-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-0001 (completed)")
	assert.Contains(t, out, "Results: 2, failures: 0")
	assert.Contains(t, out, "Ranking analysis:")
	assert.Contains(t, out, "Performance analysis:")
	assert.NotContains(t, out, "[1] ")
}

func TestShowCommand_Results(t *testing.T) {
	db := recordedDB(t)

	out, err := executeCLI(t, NewShowCommand(&RootOptions{Format: "json"}), "--db", db, "--results", "run-0001")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-0001", resp.Data.Run.ID)
	require.Len(t, resp.Data.Reports, 2)
	require.Len(t, resp.Data.Results, 2)
	require.Len(t, resp.Data.Results[0].Explanations, 2)
	assert.NotEmpty(t, resp.Data.Results[0].Explanations[0].Fingerprint)
}

func TestShowCommand_UnknownRun(t *testing.T) {
	db := recordedDB(t)

	out, err := executeCLI(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", db, "run-9999")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: unknown run")
}
