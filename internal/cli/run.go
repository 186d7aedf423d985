package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/cfeval/internal/adapter"
	"github.com/roach88/cfeval/internal/analysis"
	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Algorithm string
	Database  string
	Verify    bool
	OnFailure string

	// Clock overrides the wall clock (for testing). Defaults to the system clock.
	Clock harness.Clock

	// IDGenerator overrides run identifiers (for testing). Defaults to UUIDv7.
	IDGenerator store.IDGenerator
}

// RunSummary is the JSON payload of a completed run.
type RunSummary struct {
	RunID    string           `json:"run_id,omitempty"`
	Batch    string           `json:"batch"`
	Results  int              `json:"results"`
	Reports  []harness.Report `json:"reports"`
	Failures []FailureInfo    `json:"failures,omitempty"`
}

// FailureInfo describes a skipped test case.
type FailureInfo struct {
	Key   string `json:"key"`
	State string `json:"state"`
	Error string `json:"error"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <batch>",
		Short: "Evaluate an algorithm against a batch of test cases",
		Long: `Evaluate a counterfactual explanation algorithm against a batch.

The batch file names its ontology and lists the test cases. Each test case is
materialized into the knowledge base, handed to the algorithm and retracted
again, one at a time. The ranking and performance analyses are printed as each
test case completes and once more for the whole batch.

Algorithm output is read from a replay file recorded per test case key.

Example:
  cfeval run --algorithm ./replay.yaml ./batch.yaml
  cfeval run --algorithm ./replay.yaml --db ./results.db --verify ./batch.yaml
  cfeval run --algorithm ./replay.yaml --on-failure skip --format json ./batch.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "path to recorded algorithm output (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify every test case is consistent before running")
	cmd.Flags().StringVar(&opts.OnFailure, "on-failure", string(harness.FailAbort), "failing test case policy (abort|skip)")
	_ = cmd.MarkFlagRequired("algorithm")

	return cmd
}

func runEvaluation(cmd *cobra.Command, opts *RunOptions, batchPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := formatter.Logger()

	policy, err := harness.ParseFailurePolicy(opts.OnFailure)
	if err != nil {
		return failWith(formatter, ErrCodeGeneric, ExitCommandError, "invalid flag", err)
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	loader := NewLoader(logger)
	defer func() {
		if err := loader.Close(); err != nil {
			logger.Error("error closing knowledge base", "error", err)
		}
	}()

	env, err := loader.Load(ctx, batchPath)
	if err != nil {
		return fail(formatter, "failed to load batch", err)
	}
	if opts.Verify {
		if err := env.Registry.VerifyConsistency(ctx); err != nil {
			return fail(formatter, "consistency verification failed", err)
		}
	}

	replay, err := adapter.LoadReplay(opts.Algorithm)
	if err != nil {
		return failWith(formatter, ErrCodeAlgorithm, ExitCommandError, "failed to load algorithm output", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = harness.SystemClock{}
	}

	programOpts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithFailurePolicy(policy),
	}
	if !formatter.JSON() {
		programOpts = append(programOpts, harness.WithCallbacks(progressPrinter(formatter.Writer)))
	}

	var (
		st    *store.Store
		runID string
	)
	if opts.Database != "" {
		st, err = openStore(opts, clock)
		if err != nil {
			return failWith(formatter, ErrCodeStore, ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		runID, err = st.BeginRun(ctx, store.RunInfo{Batch: batchPath, Algorithm: replay.Name()})
		if err != nil {
			return failWith(formatter, ErrCodeStore, ExitCommandError, "failed to record run", err)
		}
		logger.Info("run recorded", "run_id", runID, "db", opts.Database)
		programOpts = append(programOpts, harness.WithResultSink(st.Recorder(runID)))
	}

	program := harness.NewProgram(
		adapter.New(replay, adapter.WithClock(clock), adapter.WithLogger(logger)),
		[]harness.Analyzer{analysis.NewRanking(), analysis.NewPerformance(clock)},
		programOpts...,
	)

	logger.Info("run starting", "batch", batchPath, "algorithm", replay.Name(), "policy", policy)
	outcome, runErr := program.Run(ctx, env.Registry)
	if st != nil {
		finishRun(ctx, st, runID, outcome, runErr, logger)
	}
	if runErr != nil {
		return fail(formatter, "run failed", runErr)
	}

	summary := RunSummary{
		RunID:    runID,
		Batch:    batchPath,
		Results:  len(outcome.Results),
		Reports:  outcome.Reports,
		Failures: failureInfos(outcome.Failures),
	}

	if err := formatter.Success(summaryOutput(formatter, summary)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if n := len(outcome.Failures); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test case(s) skipped", n))
	}
	return nil
}

func openStore(opts *RunOptions, clock harness.Clock) (*store.Store, error) {
	storeOpts := []store.Option{store.WithClock(clock)}
	if opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
	}
	return store.Open(opts.Database, storeOpts...)
}

// finishRun closes the recorded run. It runs even when the run context was
// canceled so an interrupted run is still marked failed.
func finishRun(ctx context.Context, st *store.Store, runID string, outcome *harness.Outcome, runErr error, logger *slog.Logger) {
	status, failures := store.RunCompleted, 0
	if runErr != nil {
		status, failures = store.RunFailed, 1
	} else {
		failures = len(outcome.Failures)
	}
	if err := st.FinishRun(context.WithoutCancel(ctx), runID, status, failures); err != nil {
		logger.Error("error finishing run", "run_id", runID, "error", err)
		return
	}
	logger.Debug("run finished", "run_id", runID, "status", status, "failures", failures)
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

// progressPrinter prints the per-test-case analysis as each test case completes.
func progressPrinter(w io.Writer) harness.Callback {
	return func(result harness.ProgramResult, reports []harness.Report) {
		fmt.Fprintf(w, "✓ %s: %d explanation(s)\n", result.TestCase().Key(), len(result.Explanations()))
		for _, r := range reports {
			fmt.Fprintf(w, "%s\n", r.Text)
		}
		fmt.Fprintln(w)
	}
}

func failureInfos(failures []*harness.TestCaseError) []FailureInfo {
	if len(failures) == 0 {
		return nil
	}
	out := make([]FailureInfo, len(failures))
	for i, f := range failures {
		out[i] = FailureInfo{Key: string(f.Key), State: string(f.State), Error: f.Err.Error()}
	}
	return out
}

// summaryOutput returns the JSON payload, or the rendered reports for text output.
func summaryOutput(f *OutputFormatter, s RunSummary) any {
	if f.JSON() {
		return s
	}

	var b strings.Builder
	for i, r := range s.Reports {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Text)
	}
	for _, fi := range s.Failures {
		fmt.Fprintf(&b, "\n✗ test case %s skipped (%s): %s", fi.Key, fi.State, fi.Error)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "\n\nRun recorded: %s", s.RunID)
	}
	return b.String()
}
