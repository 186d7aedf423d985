package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// FailurePolicy decides what a failing test case does to the run.
type FailurePolicy string

const (
	// FailAbort stops the run at the first failing test case.
	FailAbort FailurePolicy = "abort"
	// FailSkip logs the failure, drops the test case's contribution and continues.
	FailSkip FailurePolicy = "skip"
)

// ParseFailurePolicy validates a policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailAbort, FailSkip:
		return FailurePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want abort or skip)", s)
	}
}

// Program runs an adapter over a registry's test cases and analyzes the results.
type Program struct {
	adapter   Adapter
	analyzers []Analyzer
	callbacks []Callback
	sink      ResultSink
	policy    FailurePolicy
	logger    *slog.Logger
}

// Option configures a Program.
type Option func(*Program)

// WithLogger sets the program logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFailurePolicy sets how a failing test case affects the run. Default FailAbort.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Program) { p.policy = policy }
}

// WithCallbacks registers incremental result callbacks.
func WithCallbacks(callbacks ...Callback) Option {
	return func(p *Program) { p.callbacks = append(p.callbacks, callbacks...) }
}

// WithResultSink persists results and reports as they are produced.
func WithResultSink(sink ResultSink) Option {
	return func(p *Program) { p.sink = sink }
}

// NewProgram creates a program. Analyzers run in registration order.
func NewProgram(adapter Adapter, analyzers []Analyzer, opts ...Option) *Program {
	p := &Program{
		adapter:   adapter,
		analyzers: analyzers,
		policy:    FailAbort,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger.Debug("run state", "state", StateIdle)
	return p
}

// Outcome is everything a run produced.
type Outcome struct {
	Results  []ProgramResult
	Reports  []Report
	Failures []*TestCaseError
}

// Run processes every loaded test case strictly in order, then runs the
// batch-wide analysis.
//
// Per test case: analyzer BeforeTestCase hooks, the adapter, AfterTestCase
// hooks, a second destroy, then the result is recorded, sent to the sink
// and analyzed incrementally for the callbacks. A failing test case
// contributes no result. Under FailAbort the run returns its
// *TestCaseError; under FailSkip it is listed in Outcome.Failures.
func (p *Program) Run(ctx context.Context, registry *Registry) (*Outcome, error) {
	p.logger.Debug("run state", "state", StateLoading)
	cases, err := registry.TestCases()
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Results: []ProgramResult{}}
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.runTestCase(ctx, tc)
		if err != nil {
			var tcErr *TestCaseError
			if !errors.As(err, &tcErr) || p.policy == FailAbort {
				return nil, err
			}
			p.transition(tc, StateSkipped)
			p.logger.Warn("test case skipped", "test_case", tc.Key(), "state", tcErr.State, "error", tcErr.Err)
			outcome.Failures = append(outcome.Failures, tcErr)
			continue
		}

		if err := p.record(ctx, result); err != nil {
			return nil, err
		}
		outcome.Results = append(outcome.Results, result)
		p.logger.Info("test case completed",
			"test_case", tc.Key(),
			"explanations", len(result.explanations),
		)
	}

	p.logger.Debug("run state", "state", StateAnalyzing)
	for _, a := range p.analyzers {
		report, err := a.Analyze(outcome.Results)
		if err != nil {
			return nil, fmt.Errorf("analyzer %s: %w", a.Name(), err)
		}
		if p.sink != nil {
			if err := p.sink.WriteReport(ctx, report); err != nil {
				return nil, fmt.Errorf("write report %s: %w", a.Name(), err)
			}
		}
		outcome.Reports = append(outcome.Reports, report)
	}

	p.logger.Debug("run state", "state", StateDone)
	return outcome, nil
}

func (p *Program) runTestCase(ctx context.Context, tc *TestCase) (ProgramResult, error) {
	fail := func(state State, err error) (ProgramResult, error) {
		return ProgramResult{}, &TestCaseError{Key: tc.Key(), State: state, Err: err}
	}

	p.transition(tc, StateNotStarted)
	for _, a := range p.analyzers {
		if err := a.BeforeTestCase(ctx, tc); err != nil {
			return fail(StateNotStarted, fmt.Errorf("%s: before test case: %w", a.Name(), err))
		}
	}

	p.transition(tc, StateRunning)
	explanations, meta, runErr := p.adapter.Run(ctx, tc)

	// After hooks close whatever the before hooks opened, even on failure.
	var hookErr error
	for _, a := range p.analyzers {
		if err := a.AfterTestCase(ctx, tc); err != nil && hookErr == nil {
			hookErr = fmt.Errorf("%s: after test case: %w", a.Name(), err)
		}
	}

	p.transition(tc, StateDestroying)
	destroyErr := tc.Destroy(ctx)

	switch {
	case runErr != nil:
		return fail(StateRunning, errors.Join(runErr, destroyErr))
	case hookErr != nil:
		return fail(StateRunning, hookErr)
	case destroyErr != nil:
		return fail(StateDestroying, destroyErr)
	}

	return NewProgramResult(tc, explanations, meta), nil
}

func (p *Program) record(ctx context.Context, result ProgramResult) error {
	tc := result.TestCase()
	p.transition(tc, StateRecorded)

	if p.sink != nil {
		if err := p.sink.WriteResult(ctx, result); err != nil {
			return fmt.Errorf("write result %s: %w", tc.Key(), err)
		}
	}

	if len(p.callbacks) == 0 {
		return nil
	}
	reports := make([]Report, 0, len(p.analyzers))
	for _, a := range p.analyzers {
		report, err := a.AnalyzeOne(result)
		if err != nil {
			return fmt.Errorf("analyzer %s: test case %s: %w", a.Name(), tc.Key(), err)
		}
		reports = append(reports, report)
	}
	for _, cb := range p.callbacks {
		cb(result, reports)
	}
	return nil
}

func (p *Program) transition(tc *TestCase, state State) {
	p.logger.Debug("test case state", "test_case", tc.Key(), "state", state)
}
