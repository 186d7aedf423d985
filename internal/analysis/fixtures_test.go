package analysis

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/harness"
	tu "github.com/roach88/cfeval/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func value(iris ...string) *harness.IRIList {
	l := harness.IRIList(iris)
	return &l
}

// fixtureSpecs are three test cases with short identifiers so rendered
// reports stay readable.
func fixtureSpecs() []harness.ExampleSpec {
	return []harness.ExampleSpec{
		{
			Key:          "1",
			DesiredClass: harness.IRIList{"D"},
			Assertions:   []harness.AssertionSpec{{Property: "p1", Value: harness.IRIList{"C1"}}},
			ExpectedOutcomes: []harness.OutcomeSpec{
				{Modifications: []harness.ModificationSpec{{Type: "remove", Property: "p1", NewValue: value("C1")}}},
				{Modifications: []harness.ModificationSpec{{Type: "insert", Property: "p2", NewValue: value("C2")}}},
			},
		},
		{
			Key:          "2",
			DesiredClass: harness.IRIList{"D", "E"},
			Assertions: []harness.AssertionSpec{
				{Property: "p1", Value: harness.IRIList{"C1", "C2"}},
				{Property: "p2", Value: harness.IRIList{"C3"}},
			},
			ExpectedOutcomes: []harness.OutcomeSpec{
				{Modifications: []harness.ModificationSpec{{Type: "modify", Property: "p3"}}},
			},
		},
		{
			Key:          "3",
			DesiredClass: harness.IRIList{"D"},
			Assertions:   []harness.AssertionSpec{{Property: "p4", Value: harness.IRIList{"C4"}}},
			ExpectedOutcomes: []harness.OutcomeSpec{
				{Modifications: []harness.ModificationSpec{{Type: "insert", Property: "p1", NewValue: value("C1")}}},
			},
		},
	}
}

func loadFixtures(t *testing.T) []*harness.TestCase {
	t.Helper()
	reg := harness.NewRegistry(nil, tu.DiscardLogger())
	cases, err := reg.Load(fixtureSpecs())
	require.NoError(t, err)
	return cases
}
