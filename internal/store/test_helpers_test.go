package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
	tu "github.com/roach88/cfeval/internal/testutil"
)

// createTestStore creates a temp-dir store with deterministic IDs and clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(tu.NewSequentialIDGenerator("run")),
		WithClock(tu.NewFakeClock(time.Second)),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func loadCases(t *testing.T, keys ...harness.Key) []*harness.TestCase {
	t.Helper()
	specs := make([]harness.ExampleSpec, len(keys))
	for i, k := range keys {
		specs[i] = harness.ExampleSpec{
			Key:          k,
			Description:  "case " + string(k),
			DesiredClass: harness.IRIList{tu.VegetarianPizza},
			Assertions: []harness.AssertionSpec{
				{Property: tu.HasTopping, Value: harness.IRIList{tu.MeatTopping}},
			},
		}
	}
	cases, err := harness.NewRegistry(nil, tu.DiscardLogger()).Load(specs)
	require.NoError(t, err)
	return cases
}

func sampleExplanations() []ir.Explanation {
	return []ir.Explanation{
		ir.NewExplanation(tu.PizzaBase+"#cf-1", []ir.AssertionChange{
			ir.NewRemove(tu.HasTopping, ir.NewSet(tu.MeatTopping)),
			ir.NewInsert(tu.HasTopping, ir.Single(tu.PizzaBase+"#tomato")),
		}, 1.5),
		ir.NewExplanation(tu.PizzaBase+"#cf-2", []ir.AssertionChange{
			ir.NewModify(tu.HasBase, ir.NewSet(), ir.NewSet(tu.ThinBase)),
		}, 2),
		ir.NewExplanation(tu.PizzaBase+"#cf-3", nil, 0),
	}
}

func sampleMeta() *harness.Meta {
	m := harness.NewMeta()
	m.Mark("start", tu.Epoch)
	m.Mark("materialized", tu.Epoch.Add(250*time.Millisecond))
	m.Mark("mapped", tu.Epoch.Add(time.Second))
	m.Set("algorithm", "replay")
	return m
}
