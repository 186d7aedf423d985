package analysis

import (
	"slices"

	"github.com/roach88/cfeval/internal/ir"
)

// Matches reports whether an explanation's changes correspond one-to-one to
// the entries of an expected set.
//
// Changes are taken in order. Each consumes the first remaining expected
// entry with the same type and property, and the same value when the entry
// specifies one. There is no backtracking: an early change can consume an
// entry a later change needed, so some matchable pairs are rejected.
func Matches(e ir.Explanation, expected ir.ExpectedSet) bool {
	pool := slices.Clone(expected)
	for _, c := range e.Changes {
		i := slices.IndexFunc(pool, func(x ir.ExpectedChange) bool { return compatible(c, x) })
		if i < 0 {
			return false
		}
		pool = slices.Delete(pool, i, i+1)
	}
	return len(pool) == 0
}

// MatchesAny reports whether e matches at least one expected set.
func MatchesAny(e ir.Explanation, sets []ir.ExpectedSet) bool {
	return slices.ContainsFunc(sets, func(s ir.ExpectedSet) bool { return Matches(e, s) })
}

// Ranks returns the positions of the explanations matching any expected set,
// in increasing order.
func Ranks(explanations []ir.Explanation, sets []ir.ExpectedSet) []int {
	ranks := []int{}
	for i, e := range explanations {
		if MatchesAny(e, sets) {
			ranks = append(ranks, i)
		}
	}
	return ranks
}

func compatible(c ir.AssertionChange, x ir.ExpectedChange) bool {
	if c.Type != x.Type || c.Property != x.Property {
		return false
	}
	if !x.HasNewValue {
		return true
	}
	return sameValue(c.Value, x.NewValue)
}

// sameValue compares sets as unordered identifiers and single values directly.
func sameValue(v ir.Value, want []string) bool {
	switch v := v.(type) {
	case ir.Set:
		return v.SameMembers(want)
	case ir.Single:
		return len(want) == 1 && want[0] == string(v)
	default:
		return len(want) == 0
	}
}
