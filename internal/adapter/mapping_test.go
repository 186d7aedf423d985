package adapter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/ir"
	tu "github.com/roach88/cfeval/internal/testutil"
)

func TestMapCandidate_TypeMapping(t *testing.T) {
	c := Candidate{
		Individual: "cf-1",
		Distance:   2.5,
		Modifications: []ModificationGroup{
			{Type: "removed", Changes: []NativeChange{
				{{Property: tu.HasTopping, Instance: tu.PizzaBase + "#ham", Types: []string{tu.MeatTopping}}},
			}},
			{Type: UnmodifiedGroup, Changes: []NativeChange{
				{{Property: tu.HasTopping, Instance: tu.PizzaBase + "#mozzarella"}},
			}},
			{Type: "added", Changes: []NativeChange{
				{{Property: tu.HasTopping, Instance: tu.PizzaBase + "#tomato"}},
			}},
			{Type: "modified", Changes: []NativeChange{
				{
					{Property: tu.HasBase, Types: []string{tu.DeepPanBase}},
					{Property: tu.HasBase, Types: []string{tu.ThinBase}},
				},
			}},
			{Type: "swapped", Changes: []NativeChange{
				{{Property: tu.HasTopping, Types: []string{tu.CheeseTopping}}},
			}},
		},
	}

	got, err := MapCandidate(c)
	require.NoError(t, err)

	want := ir.Explanation{
		Individual: "cf-1",
		Proximity:  2.5,
		Sparsity:   4,
		Changes: []ir.AssertionChange{
			ir.NewRemove(tu.HasTopping, ir.NewSet(tu.MeatTopping)),
			ir.NewInsert(tu.HasTopping, ir.Single(tu.PizzaBase+"#tomato")),
			ir.NewModify(tu.HasBase, ir.NewSet(tu.DeepPanBase), ir.NewSet(tu.ThinBase)),
			ir.NewUnknown("swapped", tu.HasTopping, ir.NewSet(tu.CheeseTopping)),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapCandidate mismatch (-want +got):\n%s", diff)
	}
}

func TestMapCandidate_SingleRecordModify(t *testing.T) {
	got, err := MapCandidate(Candidate{Modifications: []ModificationGroup{
		{Type: "modified", Changes: []NativeChange{
			{{Property: tu.HasBase, Types: []string{tu.ThinBase}}},
		}},
	}})
	require.NoError(t, err)
	require.Len(t, got.Changes, 1)
	assert.Equal(t, ir.ChangeModify, got.Changes[0].Type)
	assert.True(t, ir.IsEmptyValue(got.Changes[0].OldValue))
	assert.Equal(t, ir.NewSet(tu.ThinBase), got.Changes[0].Value)
}

func TestMapCandidate_PairTakesLastRecordForNonModify(t *testing.T) {
	got, err := MapCandidate(Candidate{Modifications: []ModificationGroup{
		{Type: "removed", Changes: []NativeChange{
			{
				{Property: tu.HasTopping, Types: []string{tu.CheeseTopping}},
				{Property: tu.HasTopping, Types: []string{tu.MeatTopping}},
			},
		}},
	}})
	require.NoError(t, err)
	require.Len(t, got.Changes, 1)
	assert.Equal(t, ir.NewRemove(tu.HasTopping, ir.NewSet(tu.MeatTopping)), got.Changes[0])
}

func TestMapCandidate_OnlyUnmodified(t *testing.T) {
	got, err := MapCandidate(Candidate{Individual: "cf", Modifications: []ModificationGroup{
		{Type: UnmodifiedGroup, Changes: []NativeChange{{{Property: tu.HasTopping, Instance: "x"}}}},
	}})
	require.NoError(t, err)
	assert.Empty(t, got.Changes)
	assert.Equal(t, 0, got.Sparsity)
}

func TestMapCandidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		change NativeChange
		want   string
	}{
		{"no records", NativeChange{}, "has 0 records"},
		{"three records", NativeChange{{Property: "p", Instance: "a"}, {Property: "p", Instance: "b"}, {Property: "p", Instance: "c"}}, "has 3 records"},
		{"no property", NativeChange{{Instance: "a"}}, "no property"},
		{"empty insert", NativeChange{{Property: "p"}}, "value may be empty only for remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapCandidate(Candidate{Modifications: []ModificationGroup{
				{Type: "added", Changes: []NativeChange{tt.change}},
			}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapCandidates_KeepsOrderAndReportsIndex(t *testing.T) {
	ok := Candidate{Individual: "a", Modifications: []ModificationGroup{
		{Type: "added", Changes: []NativeChange{{{Property: "p", Instance: "x"}}}},
	}}
	second := ok
	second.Individual = "b"

	got, err := MapCandidates([]Candidate{ok, second})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Individual)
	assert.Equal(t, "b", got[1].Individual)

	bad := Candidate{Individual: "c", Modifications: []ModificationGroup{
		{Type: "added", Changes: []NativeChange{{}}},
	}}
	_, err = MapCandidates([]Candidate{ok, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "candidate 1 (c)")
}
