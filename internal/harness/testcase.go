package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cfeval/internal/ir"
	"github.com/roach88/cfeval/internal/kb"
)

// TestCase is one scenario to evaluate, bound to a shared knowledge base.
//
// The synthetic individual is materialized lazily and owned by the test case
// together with every auxiliary individual created for it. At most one
// individual is live per test case.
type TestCase struct {
	spec     ExampleSpec
	expected []ir.ExpectedSet
	mat      *Materializer

	individual *kb.Individual
	auxiliary  []string
}

func newTestCase(spec ExampleSpec, expected []ir.ExpectedSet, mat *Materializer) *TestCase {
	return &TestCase{
		spec:     spec,
		expected: expected,
		mat:      mat,
	}
}

// Key returns the test case identifier.
func (tc *TestCase) Key() Key { return tc.spec.Key }

// Description returns the optional free-form description.
func (tc *TestCase) Description() string { return tc.spec.Description }

// DesiredClass returns the target class signature.
func (tc *TestCase) DesiredClass() []string { return slices.Clone(tc.spec.DesiredClass) }

// Assertions returns the declared initial state.
func (tc *TestCase) Assertions() []AssertionSpec { return slices.Clone(tc.spec.Assertions) }

// Expected returns the expected modification sets.
func (tc *TestCase) Expected() []ir.ExpectedSet { return tc.expected }

// KnowledgeBase returns the store the test case materializes into.
func (tc *TestCase) KnowledgeBase() KnowledgeBase { return tc.mat.kb }

// Spec returns the raw specification.
func (tc *TestCase) Spec() ExampleSpec { return tc.spec }

// Individual returns the materialized individual, materializing it on first use.
func (tc *TestCase) Individual(ctx context.Context) (kb.Individual, error) {
	if tc.individual != nil {
		return *tc.individual, nil
	}
	return tc.mat.Materialize(ctx, tc)
}

// Materialized reports whether the test case currently owns a live individual.
func (tc *TestCase) Materialized() bool { return tc.individual != nil }

// Auxiliary returns the IRIs of the auxiliary individuals owned by the test case.
func (tc *TestCase) Auxiliary() []string { return slices.Clone(tc.auxiliary) }

// Destroy retracts the individual and its auxiliaries. Safe to call repeatedly.
func (tc *TestCase) Destroy(ctx context.Context) error {
	return tc.mat.Destroy(ctx, tc)
}

// With materializes the test case, calls fn and always destroys afterward.
func (tc *TestCase) With(ctx context.Context, fn func(ind kb.Individual) error) error {
	return tc.mat.With(ctx, tc, fn)
}

// String renders the declared state and target, e.g.
// "(P1 [C1]) and (P2 [C2, C3]) => D".
func (tc *TestCase) String() string {
	parts := make([]string, len(tc.spec.Assertions))
	for i, a := range tc.spec.Assertions {
		parts[i] = fmt.Sprintf("(%s %s)", a.Property, ir.NewSet(a.Value...))
	}
	return fmt.Sprintf("%s => %s", strings.Join(parts, " and "), renderIRIs(tc.spec.DesiredClass))
}

func renderIRIs(iris []string) string {
	if len(iris) == 1 {
		return iris[0]
	}
	return ir.NewSet(iris...).String()
}
