package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/roach88/cfeval/internal/testutil"
)

func TestRegistry_DuplicateKeys(t *testing.T) {
	reg, _ := newPizzaRegistry(t)

	specs := []ExampleSpec{{Key: "1"}, {Key: "2"}, {Key: "2"}, {Key: "3"}, {Key: "1"}, {Key: "2"}}
	_, err := reg.Load(specs)
	require.Error(t, err)

	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []Key{"2", "1"}, dupErr.Keys)
	assert.Equal(t, "duplicate keys found: 2, 1", err.Error())

	_, err = reg.TestCases()
	assert.ErrorIs(t, err, ErrNotLoaded, "a failed load loads nothing")
}

func TestRegistry_DuplicateKeyFromBatch(t *testing.T) {
	reg, _ := newPizzaRegistry(t)

	_, err := reg.Load([]ExampleSpec{{Key: "1"}, {Key: "2"}, {Key: "2"}, {Key: "3"}})
	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []Key{"2"}, dupErr.Keys)
}

func TestRegistry_UnknownChangeType(t *testing.T) {
	reg, _ := newPizzaRegistry(t)

	bad := vegetarianWith("2", tu.MeatTopping)
	bad.ExpectedOutcomes = []OutcomeSpec{
		{Modifications: []ModificationSpec{{Type: "delete", Property: tu.HasTopping}}},
	}

	_, err := reg.Load([]ExampleSpec{vegetarianWith("1", tu.CheeseTopping), bad})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{
		`test case 2: expectedOutcomes[0].modifications[0]: unknown change type "delete" (want insert, remove or modify)`,
	}, cfgErr.Violations)

	_, err = reg.TestCases()
	assert.ErrorIs(t, err, ErrNotLoaded, "a failed load loads nothing")
}

func TestRegistry_NotLoaded(t *testing.T) {
	reg, _ := newPizzaRegistry(t)

	_, err := reg.TestCases()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, reg.VerifyConsistency(context.Background()), ErrNotLoaded)
}

func TestRegistry_LoadKeepsOrder(t *testing.T) {
	reg, _ := newPizzaRegistry(t)

	cases, err := reg.LoadBatch(&Batch{Examples: []ExampleSpec{{Key: "b"}, {Key: "a"}}})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, Key("b"), cases[0].Key())

	got, err := reg.TestCases()
	require.NoError(t, err)
	assert.Equal(t, cases, got)
}

func vegetarianWith(key Key, topping string) ExampleSpec {
	return ExampleSpec{
		Key:          key,
		DesiredClass: IRIList{tu.VegetarianPizza},
		Assertions:   []AssertionSpec{{Property: tu.HasTopping, Value: IRIList{topping}}},
	}
}

func TestVerifyConsistency_AllConsistent(t *testing.T) {
	ctx := context.Background()
	reg, k := newPizzaRegistry(t)
	_, err := reg.Load([]ExampleSpec{
		vegetarianWith("1", tu.CheeseTopping),
		vegetarianWith("2", tu.MeatTopping),
	})
	require.NoError(t, err)

	before, err := k.CountIndividuals(ctx)
	require.NoError(t, err)

	require.NoError(t, reg.VerifyConsistency(ctx))

	after, err := k.CountIndividuals(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "verification retracts every test case")
}

func TestVerifyConsistency_AggregatesInconsistentKeys(t *testing.T) {
	ctx := context.Background()
	reg, k := newPizzaRegistry(t)
	_, err := reg.Load([]ExampleSpec{
		vegetarianWith("1", tu.CheeseTopping),
		// A pizza as a topping clashes with Topping.
		vegetarianWith("2", tu.Pizza),
		{Key: "3", DesiredClass: IRIList{tu.VegetarianPizza, tu.MeatyPizza}},
	})
	require.NoError(t, err)

	err = reg.VerifyConsistency(ctx)
	require.Error(t, err)

	var incErr *InconsistencyError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, []Key{"2", "3"}, incErr.Keys)
	assert.Contains(t, incErr.Diagnostics["2"], "Pizza and Topping")
	assert.Contains(t, incErr.Diagnostics["3"], "MeatyPizza and VegetarianPizza")
	assert.Contains(t, err.Error(), "inconsistent test cases: 2, 3")

	n, err := k.CountIndividuals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "only the ontology's own individuals remain")
}

func TestVerifyConsistency_ResolutionFailure(t *testing.T) {
	reg, _ := newPizzaRegistry(t)
	_, err := reg.Load([]ExampleSpec{vegetarianWith("1", tu.PizzaBase+"#Pineapple")})
	require.NoError(t, err)

	err = reg.VerifyConsistency(context.Background())
	var tcErr *TestCaseError
	require.ErrorAs(t, err, &tcErr)
	assert.Equal(t, Key("1"), tcErr.Key)
	assert.Equal(t, StateMaterializing, tcErr.State)
}
