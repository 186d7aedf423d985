package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/cfeval/internal/kb"
)

// maxNameAttempts bounds the suffixes tried when a synthesized name is taken.
const maxNameAttempts = 100

// Materializer builds test case individuals inside a knowledge base and
// retracts them again. It is the only writer of synthetic individuals.
type Materializer struct {
	kb     KnowledgeBase
	logger *slog.Logger
	lower  cases.Caser
}

// NewMaterializer creates a materializer over a shared knowledge base.
func NewMaterializer(k KnowledgeBase, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Materializer{
		kb:     k,
		logger: logger,
		lower:  cases.Lower(language.Und),
	}
}

// KnowledgeBase returns the store the materializer writes to.
func (m *Materializer) KnowledgeBase() KnowledgeBase { return m.kb }

// Materialize creates the test case's primary individual typed with its
// desired classes, then applies every declared assertion in order.
//
// Functional properties are set (the last assertion wins); other properties
// accumulate. Assertion targets are resolved from their type signature,
// reusing an existing individual with exactly that type-set or creating an
// auxiliary one owned by the test case.
//
// On failure everything created so far is retracted before returning.
func (m *Materializer) Materialize(ctx context.Context, tc *TestCase) (kb.Individual, error) {
	if tc.individual != nil {
		return *tc.individual, nil
	}

	ind, err := m.materialize(ctx, tc)
	if err != nil {
		if derr := m.Destroy(ctx, tc); derr != nil {
			err = errors.Join(err, derr)
		}
		return kb.Individual{}, err
	}

	m.logger.Debug("test case materialized",
		"test_case", tc.Key(),
		"individual", ind.IRI,
		"auxiliary", len(tc.auxiliary),
	)
	return ind, nil
}

func (m *Materializer) materialize(ctx context.Context, tc *TestCase) (kb.Individual, error) {
	for _, iri := range tc.spec.DesiredClass {
		if _, err := m.kb.LookupClass(ctx, iri); err != nil {
			return kb.Individual{}, fmt.Errorf("desired class: %w", err)
		}
	}

	ind, err := m.createUnique(ctx, primaryName(tc.Key()), tc.spec.DesiredClass)
	if err != nil {
		return kb.Individual{}, err
	}
	tc.individual = &ind

	for i, a := range tc.spec.Assertions {
		prop, err := m.kb.LookupProperty(ctx, a.Property)
		if err != nil {
			return kb.Individual{}, fmt.Errorf("assertions[%d]: %w", i, err)
		}

		target, err := m.resolveTarget(ctx, tc, a.Value)
		if err != nil {
			return kb.Individual{}, fmt.Errorf("assertions[%d]: %w", i, err)
		}

		if prop.Functional {
			err = m.kb.SetPropertyValue(ctx, ind.IRI, prop.IRI, target)
		} else {
			err = m.kb.AppendPropertyValue(ctx, ind.IRI, prop.IRI, target)
		}
		if err != nil {
			return kb.Individual{}, fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return ind, nil
}

// resolveTarget returns the IRI of an individual whose asserted type-set equals
// the signature, creating an auxiliary individual when none exists.
func (m *Materializer) resolveTarget(ctx context.Context, tc *TestCase, signature []string) (string, error) {
	if len(signature) == 0 {
		return "", fmt.Errorf("empty type signature")
	}

	names := make([]string, len(signature))
	for i, iri := range signature {
		c, err := m.kb.LookupClass(ctx, iri)
		if err != nil {
			return "", err
		}
		names[i] = c.Name
	}

	instances, err := m.kb.InstancesOf(ctx, signature[0])
	if err != nil {
		return "", err
	}
	for _, inst := range instances {
		types, err := m.kb.TypesOf(ctx, inst.IRI)
		if err != nil {
			return "", err
		}
		if sameTypeSet(types, signature) {
			return inst.IRI, nil
		}
	}

	aux, err := m.createUnique(ctx, m.lower.String(strings.Join(names, "_")), signature)
	if err != nil {
		return "", err
	}
	tc.auxiliary = append(tc.auxiliary, aux.IRI)
	m.logger.Debug("auxiliary individual created", "test_case", tc.Key(), "individual", aux.IRI)
	return aux.IRI, nil
}

// createUnique creates an individual, appending a numeric suffix while the name is taken.
func (m *Materializer) createUnique(ctx context.Context, name string, classes []string) (kb.Individual, error) {
	candidate := name
	for attempt := 2; attempt <= maxNameAttempts+1; attempt++ {
		ind, err := m.kb.CreateIndividual(ctx, candidate, classes)
		if err == nil {
			return ind, nil
		}
		if !errors.Is(err, kb.ErrIndividualExists) {
			return kb.Individual{}, err
		}
		candidate = name + "_" + strconv.Itoa(attempt)
	}
	return kb.Individual{}, fmt.Errorf("no free individual name for %s", name)
}

// Destroy retracts the primary individual and every auxiliary individual the
// test case owns, then clears the ownership records. A no-op when nothing is live.
func (m *Materializer) Destroy(ctx context.Context, tc *TestCase) error {
	if tc.individual == nil && len(tc.auxiliary) == 0 {
		return nil
	}

	var errs []error
	if tc.individual != nil {
		if err := m.kb.DestroyIndividual(ctx, tc.individual.IRI); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(tc.auxiliary) - 1; i >= 0; i-- {
		if err := m.kb.DestroyIndividual(ctx, tc.auxiliary[i]); err != nil {
			errs = append(errs, err)
		}
	}

	m.logger.Debug("test case destroyed", "test_case", tc.Key(), "auxiliary", len(tc.auxiliary))
	tc.individual = nil
	tc.auxiliary = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("destroy test case %s: %w", tc.Key(), err)
	}
	return nil
}

// With materializes tc, calls fn with its individual and destroys tc on every
// exit path, including a failing or panicking fn.
func (m *Materializer) With(ctx context.Context, tc *TestCase, fn func(ind kb.Individual) error) (err error) {
	ind, err := m.Materialize(ctx, tc)
	if err != nil {
		return err
	}

	defer func() {
		if derr := m.Destroy(ctx, tc); derr != nil {
			err = errors.Join(err, derr)
		}
	}()

	return fn(ind)
}

// primaryName derives an individual name from a test case key.
func primaryName(key Key) string {
	return "testcase-" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, string(key))
}

func sameTypeSet(a, b []string) bool {
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}
