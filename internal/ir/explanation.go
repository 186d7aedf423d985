package ir

import (
	"fmt"
	"strings"
)

// Explanation is one counterfactual candidate for a test case.
//
// Explanations for a test case are ranked in the order the algorithm returned
// them: rank 0 is the algorithm's first (best) candidate.
type Explanation struct {
	// Individual is the IRI of the candidate state. It is a display reference
	// only; the explanation does not own the individual and it may already be
	// gone from the knowledge base.
	Individual string `json:"individual"`

	// Changes lists the changed assertions in the order the algorithm returned them.
	Changes []AssertionChange `json:"changes"`

	// Proximity is the algorithm-reported distance. Comparable only within one run.
	Proximity float64 `json:"proximity"`

	// Sparsity is the number of changed assertions.
	Sparsity int `json:"sparsity"`
}

// NewExplanation creates an explanation, deriving sparsity from the change list.
func NewExplanation(individual string, changes []AssertionChange, proximity float64) Explanation {
	if changes == nil {
		changes = []AssertionChange{}
	}
	return Explanation{
		Individual: individual,
		Changes:    changes,
		Proximity:  proximity,
		Sparsity:   len(changes),
	}
}

// Validate checks the sparsity invariant and every change.
func (e Explanation) Validate() error {
	if e.Sparsity != len(e.Changes) {
		return fmt.Errorf("explanation %s: sparsity %d does not match %d changes", e.Individual, e.Sparsity, len(e.Changes))
	}
	for i, c := range e.Changes {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("explanation %s: changes[%d]: %w", e.Individual, i, err)
		}
	}
	return nil
}

// String renders one change per line.
func (e Explanation) String() string {
	lines := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}
