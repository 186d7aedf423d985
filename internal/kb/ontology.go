package kb

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed ontology_schema.cue
var ontologySchema string

// Ontology is a decoded ontology document.
type Ontology struct {
	Base        string               `json:"base"`
	Classes     []OntologyClass      `json:"classes"`
	Properties  []OntologyProperty   `json:"properties"`
	Individuals []OntologyIndividual `json:"individuals"`
}

// OntologyClass declares a class and its axioms.
type OntologyClass struct {
	IRI          string   `json:"iri"`
	SubClassOf   []string `json:"subClassOf"`
	DisjointWith []string `json:"disjointWith"`
}

// OntologyProperty declares a property and its axioms.
type OntologyProperty struct {
	IRI        string   `json:"iri"`
	Functional bool     `json:"functional"`
	Domain     []string `json:"domain"`
	Range      []string `json:"range"`
}

// OntologyIndividual declares a background individual.
type OntologyIndividual struct {
	Name  string         `json:"name"`
	Types []string       `json:"types"`
	Facts []OntologyFact `json:"facts"`
}

// OntologyFact is one property value of a background individual.
// Object is an individual name, or an IRI when it contains a colon.
type OntologyFact struct {
	Property string `json:"property"`
	Object   string `json:"object"`
}

// SchemaError reports an ontology document that does not satisfy the schema.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// ParseOntology unifies a CUE (or JSON) document with the ontology schema
// and decodes it. The filename is used in error positions only.
func ParseOntology(data []byte, filename string) (*Ontology, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(ontologySchema, cue.Filename("ontology_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile ontology schema: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.Unify(doc).LookupPath(cue.ParsePath("ontology"))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var ont Ontology
	if err := v.Decode(&ont); err != nil {
		return nil, formatCUEError(err)
	}
	return &ont, nil
}

// LoadOntologyFile reads an ontology document and applies it to the knowledge base.
func (k *KB) LoadOntologyFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ontology: %w", err)
	}
	ont, err := ParseOntology(data, path)
	if err != nil {
		return fmt.Errorf("parse ontology %s: %w", path, err)
	}
	if err := k.ApplyOntology(ctx, ont); err != nil {
		return fmt.Errorf("apply ontology %s: %w", path, err)
	}
	return nil
}

// ApplyOntology defines everything an ontology declares.
// Axioms may reference classes declared later in the document.
func (k *KB) ApplyOntology(ctx context.Context, ont *Ontology) error {
	k.SetBase(ont.Base)

	for _, c := range ont.Classes {
		if _, err := k.DefineClass(ctx, c.IRI); err != nil {
			return err
		}
	}
	for _, p := range ont.Properties {
		if _, err := k.DefineProperty(ctx, p.IRI, p.Functional); err != nil {
			return err
		}
	}

	for _, c := range ont.Classes {
		for _, parent := range c.SubClassOf {
			if err := k.AddSubclass(ctx, c.IRI, parent); err != nil {
				return fmt.Errorf("class %s: subClassOf: %w", c.IRI, err)
			}
		}
		for _, other := range c.DisjointWith {
			if err := k.AddDisjoint(ctx, c.IRI, other); err != nil {
				return fmt.Errorf("class %s: disjointWith: %w", c.IRI, err)
			}
		}
	}
	for _, p := range ont.Properties {
		for _, d := range p.Domain {
			if err := k.AddDomain(ctx, p.IRI, d); err != nil {
				return fmt.Errorf("property %s: domain: %w", p.IRI, err)
			}
		}
		for _, r := range p.Range {
			if err := k.AddRange(ctx, p.IRI, r); err != nil {
				return fmt.Errorf("property %s: range: %w", p.IRI, err)
			}
		}
	}

	for _, ind := range ont.Individuals {
		if _, err := k.CreateIndividual(ctx, ind.Name, ind.Types); err != nil {
			return err
		}
	}
	for _, ind := range ont.Individuals {
		subject := k.IndividualIRI(ind.Name)
		for _, f := range ind.Facts {
			if err := k.assertFact(ctx, subject, f); err != nil {
				return fmt.Errorf("individual %s: %w", ind.Name, err)
			}
		}
	}

	k.logger.Debug("ontology applied",
		"base", k.base,
		"classes", len(ont.Classes),
		"properties", len(ont.Properties),
		"individuals", len(ont.Individuals),
	)
	return nil
}

func (k *KB) assertFact(ctx context.Context, subject string, f OntologyFact) error {
	object := f.Object
	if !strings.Contains(object, ":") {
		object = k.IndividualIRI(object)
	}

	p, err := k.LookupProperty(ctx, f.Property)
	if err != nil {
		return err
	}
	if p.Functional {
		return k.SetPropertyValue(ctx, subject, p.IRI, object)
	}
	return k.AppendPropertyValue(ctx, subject, p.IRI, object)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	msg := first.Error()
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more errors)", msg, len(errs)-1)
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &SchemaError{Message: msg, Pos: positions[0]}
	}
	return &SchemaError{Message: msg}
}
