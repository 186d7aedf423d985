package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cfeval/internal/ir"
)

// Batch is a set of test case specifications sharing one ontology.
type Batch struct {
	// Ontology references the ontology document, relative to the batch file.
	Ontology string `yaml:"ontology"`

	// Examples are the test case specifications, in evaluation order.
	Examples []ExampleSpec `yaml:"examples"`

	// Path is the file the batch was loaded from, if any.
	Path string `yaml:"-"`
}

// ExampleSpec is the raw specification of one test case.
type ExampleSpec struct {
	Key          Key             `yaml:"key"`
	Description  string          `yaml:"description,omitempty"`
	DesiredClass IRIList         `yaml:"desiredClass"`
	Assertions   []AssertionSpec `yaml:"assertions"`

	// ExpectedOutcomes lists acceptable explanations. Optional.
	ExpectedOutcomes []OutcomeSpec `yaml:"expectedOutcomes,omitempty"`
}

// AssertionSpec declares one initial property value of the synthetic individual.
// Value is the type signature of the target individual.
type AssertionSpec struct {
	Property string  `yaml:"property"`
	Value    IRIList `yaml:"value"`
}

// OutcomeSpec is one expected modification set.
type OutcomeSpec struct {
	Modifications []ModificationSpec `yaml:"modifications"`
}

// ModificationSpec is one expected assertion change. Matching compares the
// post-change value only, so no old value is accepted.
type ModificationSpec struct {
	Type     string   `yaml:"type"`
	Property string   `yaml:"property"`
	NewValue *IRIList `yaml:"new_value,omitempty"`
}

// Key identifies a test case. Integer and string keys are both accepted and
// compared by their textual form.
type Key string

// UnmarshalYAML accepts any scalar.
func (k *Key) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: key must be a scalar", node.Line)
	}
	*k = Key(node.Value)
	return nil
}

// IRIList is one or more IRIs. A single scalar is accepted as a one-element list.
type IRIList []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (l *IRIList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = IRIList{node.Value}
		return nil
	case yaml.SequenceNode:
		var iris []string
		if err := node.Decode(&iris); err != nil {
			return err
		}
		*l = IRIList(iris)
		return nil
	default:
		return fmt.Errorf("line %d: expected an IRI or a list of IRIs", node.Line)
	}
}

// LoadBatch reads and validates a batch file. YAML and JSON are both accepted.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	batch, err := ParseBatch(data, path)
	if err != nil {
		return nil, err
	}
	batch.Path = path
	return batch, nil
}

// ParseBatch decodes and validates batch data. Every violation is reported,
// not just the first, as a *ConfigError.
func ParseBatch(data []byte, source string) (*Batch, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var batch Batch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&batch); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Source: source, Violations: []string{"batch is empty"}}
		}
		return nil, &ConfigError{Source: source, Violations: yamlViolations(err)}
	}

	if violations := validateBatch(&batch); len(violations) > 0 {
		return nil, &ConfigError{Source: source, Violations: violations}
	}
	return &batch, nil
}

// OntologyPath resolves the ontology reference against the batch file's directory.
func (b *Batch) OntologyPath() string {
	if filepath.IsAbs(b.Ontology) || b.Path == "" {
		return b.Ontology
	}
	return filepath.Join(filepath.Dir(b.Path), b.Ontology)
}

// ExpectedSets converts the expected outcomes into ground-truth sets.
// An unknown change type fails the conversion.
func (e ExampleSpec) ExpectedSets() ([]ir.ExpectedSet, error) {
	sets := make([]ir.ExpectedSet, 0, len(e.ExpectedOutcomes))
	for i, outcome := range e.ExpectedOutcomes {
		set := make(ir.ExpectedSet, 0, len(outcome.Modifications))
		for j, m := range outcome.Modifications {
			t, err := ir.ParseChangeType(m.Type)
			if err != nil {
				return nil, fmt.Errorf("expectedOutcomes[%d].modifications[%d]: %w", i, j, err)
			}
			change := ir.ExpectedChange{Type: t, Property: m.Property}
			if m.NewValue != nil {
				change.NewValue = []string(*m.NewValue)
				change.HasNewValue = true
			}
			set = append(set, change)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func validateBatch(b *Batch) []string {
	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if b.Ontology == "" {
		add("ontology is required")
	}
	if b.Examples == nil {
		add("examples is required")
	}

	for i, ex := range b.Examples {
		if ex.Key == "" {
			add("examples[%d]: key is required", i)
		}
		if len(ex.DesiredClass) == 0 {
			add("examples[%d]: desiredClass is required", i)
		}
		for j, iri := range ex.DesiredClass {
			if iri == "" {
				add("examples[%d].desiredClass[%d]: IRI is empty", i, j)
			}
		}

		for j, a := range ex.Assertions {
			if a.Property == "" {
				add("examples[%d].assertions[%d]: property is required", i, j)
			}
			if len(a.Value) == 0 {
				add("examples[%d].assertions[%d]: value is required", i, j)
			}
		}

		for j, o := range ex.ExpectedOutcomes {
			for k, m := range o.Modifications {
				prefix := fmt.Sprintf("examples[%d].expectedOutcomes[%d].modifications[%d]", i, j, k)
				if _, err := ir.ParseChangeType(m.Type); err != nil {
					add("%s: %v", prefix, err)
				}
				if m.Property == "" {
					add("%s: property is required", prefix)
				}
			}
		}
	}
	return violations
}

func yamlViolations(err error) []string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return typeErr.Errors
	}
	return []string{err.Error()}
}
