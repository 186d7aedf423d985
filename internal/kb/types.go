package kb

import (
	"context"
	"fmt"
	"strings"
)

// Class is a named ontology class.
type Class struct {
	ID   int64  `json:"-"`
	IRI  string `json:"iri"`
	Name string `json:"name"`
}

// Property is a named ontology property.
type Property struct {
	ID         int64  `json:"-"`
	IRI        string `json:"iri"`
	Name       string `json:"name"`
	Functional bool   `json:"functional"`
}

// Individual is a named member of one or more classes.
type Individual struct {
	ID   int64  `json:"-"`
	IRI  string `json:"iri"`
	Name string `json:"name"`
}

// Pair relates two IRIs (child/parent, class/class, property/class, individual/class).
type Pair struct {
	From string
	To   string
}

// Triple is one property value assertion.
type Triple struct {
	Subject  string
	Property string
	Object   string
}

// Snapshot is a read-only copy of the knowledge base used by reasoners.
// All slices are in deterministic database order.
type Snapshot struct {
	Classes     []string
	Subclasses  []Pair // child -> parent
	Disjoints   []Pair
	Properties  []Property
	Domains     []Pair // property -> class
	Ranges      []Pair // property -> class
	Individuals []string
	Types       []Pair // individual -> class
	Values      []Triple
}

// Clash is one reason the knowledge base is inconsistent.
type Clash struct {
	Individual string `json:"individual"`
	Reason     string `json:"reason"`
}

// ConsistencyReport is the outcome of a reasoner consistency check.
type ConsistencyReport struct {
	Consistent bool    `json:"consistent"`
	Clashes    []Clash `json:"clashes,omitempty"`
}

// Diagnostic renders every clash on one line, or "consistent".
func (r *ConsistencyReport) Diagnostic() string {
	if r == nil || r.Consistent {
		return "consistent"
	}
	parts := make([]string, len(r.Clashes))
	for i, c := range r.Clashes {
		parts[i] = fmt.Sprintf("%s: %s", c.Individual, c.Reason)
	}
	return strings.Join(parts, "; ")
}

// Reasoner decides whether a knowledge base snapshot is logically consistent.
type Reasoner interface {
	Check(ctx context.Context, snap *Snapshot) (*ConsistencyReport, error)
}
