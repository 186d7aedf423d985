package adapter

import (
	"context"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/kb"
)

// UnmodifiedGroup is the reserved group name for assertions left untouched.
const UnmodifiedGroup = "unmodified"

// Request is the input of one algorithm call.
type Request struct {
	Key        harness.Key
	Individual kb.Individual
	Target     []string
	KB         harness.KnowledgeBase
}

// Algorithm generates counterfactual candidates for a materialized individual.
type Algorithm interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]Candidate, error)
}

// Candidate is one counterfactual in the algorithm's native shape.
type Candidate struct {
	Individual    string              `yaml:"individual"`
	Distance      float64             `yaml:"distance"`
	Modifications []ModificationGroup `yaml:"-"`
}

// ModificationGroup is the ordered list of native changes of one type.
type ModificationGroup struct {
	Type    string
	Changes []NativeChange
}

// NativeChange is one or two records. Two records describe a modify as old, new.
type NativeChange []NativeRecord

// NativeRecord is an assertion as the algorithm reports it: a property and
// the individual it points at, with that individual's types when known.
type NativeRecord struct {
	Property string   `yaml:"property"`
	Instance string   `yaml:"instance,omitempty"`
	Types    []string `yaml:"types,omitempty"`
}
