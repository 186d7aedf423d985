package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cfeval/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool              `json:"valid"`
	TestCases    int               `json:"test_cases"`
	Errors       []string          `json:"errors,omitempty"`
	Inconsistent map[string]string `json:"inconsistent,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SkipConsistency bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <batch>",
		Short: "Validate a batch without running an algorithm",
		Long: `Validate a batch file and the ontology it references.

Checks the batch schema and test case keys, loads the ontology, then
materializes every test case and asks the reasoner whether it is consistent.
Nothing is left behind in the knowledge base.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipConsistency, "skip-consistency", false, "only check the batch and ontology files")

	return cmd
}

func runValidate(opts *ValidateOptions, batchPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := formatter.Logger()

	loader := NewLoader(logger)
	defer loader.Close()

	env, err := loader.Load(cmd.Context(), batchPath)
	if err != nil {
		var configErr *harness.ConfigError
		if errors.As(err, &configErr) {
			return outputValidationErrors(formatter, ErrCodeBatchInvalid, ValidationResult{Errors: configErr.Violations})
		}
		var dupErr *harness.DuplicateKeyError
		if errors.As(err, &dupErr) {
			return outputValidationErrors(formatter, ErrCodeDuplicateKey, ValidationResult{Errors: []string{dupErr.Error()}})
		}
		return fail(formatter, "failed to load batch", err)
	}

	cases, err := env.Registry.TestCases()
	if err != nil {
		return fail(formatter, "failed to load batch", err)
	}
	formatter.VerboseLog("Loaded %d test case(s) from %s", len(cases), batchPath)

	if !opts.SkipConsistency {
		if err := env.Registry.VerifyConsistency(cmd.Context()); err != nil {
			var incErr *harness.InconsistencyError
			if !errors.As(err, &incErr) {
				return fail(formatter, "consistency verification failed", err)
			}
			return outputValidationErrors(formatter, ErrCodeInconsistent, ValidationResult{
				TestCases:    len(cases),
				Errors:       []string{incErr.Error()},
				Inconsistent: failureDetails(incErr),
			})
		}
	}

	return outputValidateSuccess(formatter, len(cases))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, n int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, TestCases: n})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d test case(s) valid\n", n)
	return nil
}

// outputValidationErrors outputs every validation error found.
func outputValidationErrors(formatter *OutputFormatter, code string, result ValidationResult) error {
	result.Valid = false

	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    code,
				Message: result.Errors[0],
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, msg := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, msg)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
