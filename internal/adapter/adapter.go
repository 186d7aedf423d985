package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
	"github.com/roach88/cfeval/internal/kb"
)

// Checkpoint names recorded on every run.
const (
	CheckpointStart        = "start"
	CheckpointMaterialized = "materialized"
	CheckpointGenerated    = "generated"
	CheckpointMapped       = "mapped"
)

// Adapter runs an Algorithm against test cases.
type Adapter struct {
	algorithm Algorithm
	clock     harness.Clock
	logger    *slog.Logger
}

var _ harness.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock used for checkpoints.
func WithClock(c harness.Clock) Option {
	return func(a *Adapter) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an adapter for the given algorithm.
func New(algorithm Algorithm, opts ...Option) *Adapter {
	a := &Adapter{
		algorithm: algorithm,
		clock:     harness.SystemClock{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Algorithm returns the wrapped algorithm.
func (a *Adapter) Algorithm() Algorithm { return a.algorithm }

// Run materializes tc, generates candidates and maps them to explanations.
// The test case is destroyed before Run returns, on success or failure.
func (a *Adapter) Run(ctx context.Context, tc *harness.TestCase) ([]ir.Explanation, *harness.Meta, error) {
	meta := harness.NewMeta()
	meta.Set("algorithm", a.algorithm.Name())
	meta.Mark(CheckpointStart, a.clock.Now())

	var explanations []ir.Explanation
	err := tc.With(ctx, func(ind kb.Individual) error {
		meta.Mark(CheckpointMaterialized, a.clock.Now())

		candidates, err := a.algorithm.Generate(ctx, Request{
			Key:        tc.Key(),
			Individual: ind,
			Target:     tc.DesiredClass(),
			KB:         tc.KnowledgeBase(),
		})
		if err != nil {
			return fmt.Errorf("%s: generate: %w", a.algorithm.Name(), err)
		}
		meta.Mark(CheckpointGenerated, a.clock.Now())

		explanations, err = MapCandidates(candidates)
		if err != nil {
			return fmt.Errorf("%s: map: %w", a.algorithm.Name(), err)
		}
		meta.Mark(CheckpointMapped, a.clock.Now())
		meta.Set("candidates", strconv.Itoa(len(candidates)))
		return nil
	})
	if err != nil {
		return nil, meta, err
	}

	a.logger.Debug("explanations generated",
		"test_case", string(tc.Key()),
		"algorithm", a.algorithm.Name(),
		"count", len(explanations),
	)
	return explanations, meta, nil
}
