package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExplanation_SparsityMatchesChanges(t *testing.T) {
	e := NewExplanation("http://example.org/pizza#cf1", []AssertionChange{
		NewInsert(hasTopping, NewSet(cheese)),
		NewRemove(hasTopping, NewSet(tomato)),
	}, 0.25)

	assert.Equal(t, 2, e.Sparsity)
	assert.Equal(t, 0.25, e.Proximity)
	require.NoError(t, e.Validate())

	empty := NewExplanation("http://example.org/pizza#cf2", nil, 0)
	assert.Equal(t, 0, empty.Sparsity)
	assert.NotNil(t, empty.Changes)
}

func TestExplanation_ValidateSparsity(t *testing.T) {
	e := NewExplanation("cf", []AssertionChange{NewInsert(hasTopping, NewSet(cheese))}, 1)
	e.Sparsity = 3

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sparsity 3 does not match 1 changes")
}

func TestExplanation_ValidateChanges(t *testing.T) {
	e := NewExplanation("cf", []AssertionChange{
		NewInsert(hasTopping, NewSet(cheese)),
		NewInsert(hasTopping, nil),
	}, 1)

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changes[1]")
}

func TestExplanation_String(t *testing.T) {
	e := NewExplanation("cf", []AssertionChange{
		NewInsert("P1", NewSet("C1")),
		NewRemove("P2", nil),
	}, 1)
	assert.Equal(t, "+  P1 [C1]\n-  P2", e.String())
}

func TestExplanation_Fingerprint(t *testing.T) {
	a := NewExplanation("cf-a", []AssertionChange{NewInsert(hasTopping, NewSet(cheese))}, 0.1)
	b := NewExplanation("cf-b", []AssertionChange{NewInsert(hasTopping, NewSet(cheese))}, 0.9)
	c := NewExplanation("cf-c", []AssertionChange{NewRemove(hasTopping, NewSet(cheese))}, 0.1)
	d := NewExplanation("cf-d", []AssertionChange{NewInsert(hasTopping, Single(cheese))}, 0.1)

	fa := a.MustFingerprint()
	assert.Len(t, fa, 64)
	assert.Equal(t, fa, b.MustFingerprint(), "individual and proximity do not affect identity")
	assert.NotEqual(t, fa, c.MustFingerprint())
	assert.NotEqual(t, fa, d.MustFingerprint(), "single and set values hash differently")
}

func TestExpectedChange_String(t *testing.T) {
	open := ExpectedChange{Type: ChangeRemove, Property: "P1"}
	assert.Equal(t, "remove P1", open.String())

	specified := ExpectedChange{Type: ChangeInsert, Property: "P1", NewValue: []string{"C1", "C2"}, HasNewValue: true}
	assert.Equal(t, "insert P1 [C1, C2]", specified.String())
}
