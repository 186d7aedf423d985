package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cfeval/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Results  bool
}

// RunDetails is the JSON payload of the show command.
type RunDetails struct {
	Run     store.Run            `json:"run"`
	Reports []store.StoredReport `json:"reports"`
	Results []store.StoredResult `json:"results,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the reports of a recorded run",
		Long: `Print the analyzer reports stored for one run.

With --results every recorded test case is listed with its ranked
explanations.

Example:
  cfeval show --db ./results.db 0192f5c3-...
  cfeval show --db ./results.db --results --format json 0192f5c3-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database (required)")
	cmd.Flags().BoolVar(&opts.Results, "results", false, "include recorded test case results")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	run, results, err := st.ReadRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return failWith(formatter, ErrCodeNotFound, ExitCommandError, "unknown run", err)
		}
		return failWith(formatter, ErrCodeStore, ExitCommandError, "failed to read run", err)
	}
	reports, err := st.ReadReports(ctx, runID)
	if err != nil {
		return failWith(formatter, ErrCodeStore, ExitCommandError, "failed to read reports", err)
	}

	details := RunDetails{Run: run, Reports: reports}
	if opts.Results {
		details.Results = results
	}

	if formatter.JSON() {
		return formatter.Success(details)
	}
	return formatter.Success(formatRunDetails(details))
}

func formatRunDetails(d RunDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s)\n", d.Run.ID, d.Run.Status)
	fmt.Fprintf(&b, "Batch: %s\nAlgorithm: %s\nResults: %d, failures: %d", d.Run.Batch, d.Run.Algorithm, d.Run.Results, d.Run.Failures)

	for _, res := range d.Results {
		fmt.Fprintf(&b, "\n\n#%d %s: %s", res.Seq, res.Key, res.TestCase)
		for _, e := range res.Explanations {
			fmt.Fprintf(&b, "\n  [%d] %s\n  %s", e.Rank+1, e.Fingerprint, strings.ReplaceAll(e.Explanation.String(), "\n", "\n  "))
		}
	}

	if len(d.Reports) == 0 {
		b.WriteString("\n\nNo reports recorded")
		return b.String()
	}
	for _, r := range d.Reports {
		b.WriteString("\n\n")
		b.WriteString(r.Text)
	}
	return b.String()
}
