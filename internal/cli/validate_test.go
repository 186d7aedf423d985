package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateCLI(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	cmd := NewValidateCommand(&RootOptions{Format: format})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateCommand_Valid(t *testing.T) {
	out, err := validateCLI(t, "text", testBatch)
	require.NoError(t, err)
	assert.Equal(t, "✓ 2 test case(s) valid\n", out)
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	out, err := validateCLI(t, "json", testBatch)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.TestCases)
}

func TestValidateCommand_ReportsEveryViolation(t *testing.T) {
	out, err := validateCLI(t, "text", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E002: examples[0]: desiredClass is required")
	assert.Contains(t, out, "E002: examples[0].assertions[0]: value is required")
}

func TestValidateCommand_DuplicateKeys(t *testing.T) {
	out, err := validateCLI(t, "text", "testdata/duplicates.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E004: duplicate keys found: 1")
}

func TestValidateCommand_Inconsistent(t *testing.T) {
	out, err := validateCLI(t, "json", "testdata/inconsistent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInconsistent, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.TestCases)
	require.Contains(t, resp.Data.Inconsistent, "clash")
	assert.NotContains(t, resp.Data.Inconsistent, "fine")
	assert.Contains(t, resp.Data.Inconsistent["clash"], "MeatyPizza and VegetarianPizza")
}

func TestValidateCommand_SkipConsistency(t *testing.T) {
	out, err := validateCLI(t, "text", "--skip-consistency", "testdata/inconsistent.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 test case(s) valid")
}

func TestValidateCommand_MissingBatch(t *testing.T) {
	out, err := validateCLI(t, "text", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
