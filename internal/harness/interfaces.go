package harness

import (
	"context"
	"time"

	"github.com/roach88/cfeval/internal/ir"
	"github.com/roach88/cfeval/internal/kb"
)

// KnowledgeBase is the ontology store test cases are materialized into.
// *kb.KB implements it.
type KnowledgeBase interface {
	LookupClass(ctx context.Context, iri string) (kb.Class, error)
	LookupProperty(ctx context.Context, iri string) (kb.Property, error)
	CreateIndividual(ctx context.Context, name string, classes []string) (kb.Individual, error)
	SetPropertyValue(ctx context.Context, subject, property, object string) error
	AppendPropertyValue(ctx context.Context, subject, property, object string) error
	DestroyIndividual(ctx context.Context, iri string) error
	InstancesOf(ctx context.Context, class string) ([]kb.Individual, error)
	TypesOf(ctx context.Context, iri string) ([]string, error)
	CheckConsistency(ctx context.Context) (*kb.ConsistencyReport, error)
}

var _ KnowledgeBase = (*kb.KB)(nil)

// Adapter runs one algorithm against one test case.
//
// Implementations own the materialize/destroy lifecycle of the test case
// around the algorithm call. The individual is not valid after Run returns.
type Adapter interface {
	Run(ctx context.Context, tc *TestCase) ([]ir.Explanation, *Meta, error)
}

// Report is the output of one analyzer.
type Report struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"text"`
	Data     any    `json:"data,omitempty"`
}

// Analyzer scores program results.
//
// BeforeTestCase and AfterTestCase bracket every algorithm invocation.
// Embed NopHooks for analyzers that need neither.
type Analyzer interface {
	Name() string
	Analyze(results []ProgramResult) (Report, error)
	AnalyzeOne(result ProgramResult) (Report, error)
	BeforeTestCase(ctx context.Context, tc *TestCase) error
	AfterTestCase(ctx context.Context, tc *TestCase) error
}

// NopHooks provides no-op test case hooks.
type NopHooks struct{}

// BeforeTestCase does nothing.
func (NopHooks) BeforeTestCase(context.Context, *TestCase) error { return nil }

// AfterTestCase does nothing.
func (NopHooks) AfterTestCase(context.Context, *TestCase) error { return nil }

// Callback receives the per-analyzer mini analysis of a test case as soon as it completes.
type Callback func(result ProgramResult, reports []Report)

// ResultSink persists results and reports as a run progresses.
type ResultSink interface {
	WriteResult(ctx context.Context, result ProgramResult) error
	WriteReport(ctx context.Context, report Report) error
}

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }
