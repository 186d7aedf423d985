package adapter

import (
	"fmt"

	"github.com/roach88/cfeval/internal/ir"
)

// nativeTypes maps native change-type names onto normalized types.
var nativeTypes = map[string]ir.ChangeType{
	"added":    ir.ChangeInsert,
	"removed":  ir.ChangeRemove,
	"modified": ir.ChangeModify,
}

// MapCandidates converts candidates to explanations, keeping their order.
func MapCandidates(candidates []Candidate) ([]ir.Explanation, error) {
	explanations := make([]ir.Explanation, 0, len(candidates))
	for i, c := range candidates {
		e, err := MapCandidate(c)
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%s): %w", i, c.Individual, err)
		}
		explanations = append(explanations, e)
	}
	return explanations, nil
}

// MapCandidate flattens a candidate's modification groups into one explanation.
// Group order and then in-group order are preserved. The unmodified group is skipped.
func MapCandidate(c Candidate) (ir.Explanation, error) {
	changes := []ir.AssertionChange{}
	for _, g := range c.Modifications {
		if g.Type == UnmodifiedGroup {
			continue
		}
		for j, nc := range g.Changes {
			change, err := mapChange(g.Type, nc)
			if err != nil {
				return ir.Explanation{}, fmt.Errorf("%s[%d]: %w", g.Type, j, err)
			}
			changes = append(changes, change)
		}
	}

	e := ir.NewExplanation(c.Individual, changes, c.Distance)
	if err := e.Validate(); err != nil {
		return ir.Explanation{}, err
	}
	return e, nil
}

func mapChange(nativeType string, nc NativeChange) (ir.AssertionChange, error) {
	if len(nc) == 0 || len(nc) > 2 {
		return ir.AssertionChange{}, fmt.Errorf("native change has %d records, want 1 or 2", len(nc))
	}

	target := nc[len(nc)-1]
	if target.Property == "" {
		return ir.AssertionChange{}, fmt.Errorf("native change has no property")
	}
	value := recordValue(target)

	t, ok := nativeTypes[nativeType]
	if !ok {
		return ir.NewUnknown(nativeType, target.Property, value), nil
	}

	switch t {
	case ir.ChangeModify:
		var old ir.Value
		if len(nc) == 2 {
			old = recordValue(nc[0])
		}
		return ir.NewModify(target.Property, old, value), nil
	case ir.ChangeRemove:
		return ir.NewRemove(target.Property, value), nil
	default:
		return ir.NewInsert(target.Property, value), nil
	}
}

// recordValue decides once whether a target is a type-set or a single individual.
func recordValue(r NativeRecord) ir.Value {
	if len(r.Types) > 0 {
		return ir.NewSet(r.Types...)
	}
	return ir.Single(r.Instance)
}
