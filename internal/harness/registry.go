package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cfeval/internal/kb"
)

// Registry turns a batch of specifications into test cases bound to one
// knowledge base.
type Registry struct {
	mat    *Materializer
	logger *slog.Logger
	cases  []*TestCase
	loaded bool
}

// NewRegistry creates an empty registry over a shared knowledge base.
func NewRegistry(k KnowledgeBase, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		mat:    NewMaterializer(k, logger),
		logger: logger,
	}
}

// Materializer returns the materializer shared by every loaded test case.
func (r *Registry) Materializer() *Materializer { return r.mat }

// Load builds one test case per spec. Keys must be unique; every duplicated
// key is reported in a *DuplicateKeyError and nothing is loaded. Expected
// outcomes with an unknown change type are reported in a *ConfigError.
func (r *Registry) Load(specs []ExampleSpec) ([]*TestCase, error) {
	counts := make(map[Key]int, len(specs))
	var duplicates []Key
	for _, s := range specs {
		counts[s.Key]++
		if counts[s.Key] == 2 {
			duplicates = append(duplicates, s.Key)
		}
	}
	if len(duplicates) > 0 {
		return nil, &DuplicateKeyError{Keys: duplicates}
	}

	cases := make([]*TestCase, len(specs))
	var violations []string
	for i, s := range specs {
		expected, err := s.ExpectedSets()
		if err != nil {
			violations = append(violations, fmt.Sprintf("test case %s: %v", s.Key, err))
			continue
		}
		cases[i] = newTestCase(s, expected, r.mat)
	}
	if len(violations) > 0 {
		return nil, &ConfigError{Violations: violations}
	}

	r.cases = cases
	r.loaded = true
	r.logger.Info("test cases loaded", "count", len(cases))
	return cases, nil
}

// LoadBatch loads the examples of a batch.
func (r *Registry) LoadBatch(b *Batch) ([]*TestCase, error) {
	return r.Load(b.Examples)
}

// TestCases returns the loaded test cases, or ErrNotLoaded.
func (r *Registry) TestCases() ([]*TestCase, error) {
	if !r.loaded {
		return nil, ErrNotLoaded
	}
	return r.cases, nil
}

// VerifyConsistency materializes, checks and destroys each test case in turn.
//
// Test cases share the knowledge base, so they are checked strictly one at a
// time. Every inconsistent key is collected and reported together in one
// *InconsistencyError. A resolution failure stops verification with a
// *TestCaseError.
func (r *Registry) VerifyConsistency(ctx context.Context) error {
	cases, err := r.TestCases()
	if err != nil {
		return err
	}

	inconsistent := &InconsistencyError{Diagnostics: make(map[Key]string)}
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := r.check(ctx, tc)
		if err != nil {
			return err
		}
		if !report.Consistent {
			inconsistent.Keys = append(inconsistent.Keys, tc.Key())
			inconsistent.Diagnostics[tc.Key()] = report.Diagnostic()
			r.logger.Warn("test case inconsistent", "test_case", tc.Key(), "diagnostic", report.Diagnostic())
		}
	}

	if len(inconsistent.Keys) > 0 {
		return inconsistent
	}
	r.logger.Info("test cases consistent", "count", len(cases))
	return nil
}

func (r *Registry) check(ctx context.Context, tc *TestCase) (*kb.ConsistencyReport, error) {
	var report *kb.ConsistencyReport
	err := tc.With(ctx, func(kb.Individual) error {
		var err error
		report, err = r.mat.kb.CheckConsistency(ctx)
		return err
	})
	if err != nil {
		return nil, &TestCaseError{Key: tc.Key(), State: StateMaterializing, Err: fmt.Errorf("verify consistency: %w", err)}
	}
	return report, nil
}
