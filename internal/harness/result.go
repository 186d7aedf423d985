package harness

import (
	"slices"
	"time"

	"github.com/roach88/cfeval/internal/ir"
)

// Checkpoint is a named instant recorded during one test case.
type Checkpoint struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// Meta is free-form metadata produced while running one test case.
// Checkpoints keep insertion order.
type Meta struct {
	Checkpoints []Checkpoint      `json:"checkpoints,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// NewMeta creates empty metadata.
func NewMeta() *Meta {
	return &Meta{Attributes: make(map[string]string)}
}

// Mark records a checkpoint. Marking an existing name moves its time but keeps its position.
func (m *Meta) Mark(name string, at time.Time) {
	for i := range m.Checkpoints {
		if m.Checkpoints[i].Name == name {
			m.Checkpoints[i].At = at
			return
		}
	}
	m.Checkpoints = append(m.Checkpoints, Checkpoint{Name: name, At: at})
}

// Set records an attribute.
func (m *Meta) Set(key, value string) {
	if m.Attributes == nil {
		m.Attributes = make(map[string]string)
	}
	m.Attributes[key] = value
}

func (m *Meta) clone() *Meta {
	if m == nil {
		return NewMeta()
	}
	out := &Meta{
		Checkpoints: slices.Clone(m.Checkpoints),
		Attributes:  make(map[string]string, len(m.Attributes)),
	}
	for k, v := range m.Attributes {
		out.Attributes[k] = v
	}
	return out
}

// ProgramResult pairs a test case with the explanations generated for it.
// It is immutable: accessors return copies.
type ProgramResult struct {
	testCase     *TestCase
	explanations []ir.Explanation
	meta         *Meta
}

// NewProgramResult copies its inputs into a new result.
func NewProgramResult(tc *TestCase, explanations []ir.Explanation, meta *Meta) ProgramResult {
	expl := make([]ir.Explanation, len(explanations))
	for i, e := range explanations {
		e.Changes = slices.Clone(e.Changes)
		expl[i] = e
	}
	return ProgramResult{testCase: tc, explanations: expl, meta: meta.clone()}
}

// TestCase returns the evaluated test case.
func (r ProgramResult) TestCase() *TestCase { return r.testCase }

// Explanations returns the explanations in rank order.
func (r ProgramResult) Explanations() []ir.Explanation {
	out := make([]ir.Explanation, len(r.explanations))
	for i, e := range r.explanations {
		e.Changes = slices.Clone(e.Changes)
		out[i] = e
	}
	return out
}

// Meta returns a copy of the metadata.
func (r ProgramResult) Meta() *Meta { return r.meta.clone() }
