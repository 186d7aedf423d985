package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cfeval/internal/harness"
)

// Replay is an Algorithm that returns candidates recorded in a YAML file,
// keyed by test case key. Unknown keys yield no candidates.
//
// File format:
//
//	algorithm: ceo
//	results:
//	  1:
//	    - individual: http://example.org/pizza#cf-1
//	      distance: 0.5
//	      modifications:
//	        removed:
//	          - property: http://example.org/pizza#hasTopping
//	            instance: http://example.org/pizza#ham
//	        modified:
//	          - - {property: ..., types: [...]}
//	            - {property: ..., types: [...]}
//
// Group order in the file is the order of the flattened changes.
type Replay struct {
	name    string
	results map[harness.Key][]Candidate
}

type replayFile struct {
	Algorithm string                            `yaml:"algorithm"`
	Results   map[harness.Key][]replayCandidate `yaml:"results"`
}

type replayCandidate struct {
	Individual    string    `yaml:"individual"`
	Distance      float64   `yaml:"distance"`
	Modifications groupList `yaml:"modifications"`
}

type groupList []ModificationGroup

// UnmarshalYAML decodes a mapping of group name to changes, keeping key order.
func (g *groupList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: modifications must be a mapping", node.Line)
	}

	groups := make(groupList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i], node.Content[i+1]
		if body.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: group %s must be a sequence", body.Line, name.Value)
		}

		group := ModificationGroup{Type: name.Value, Changes: make([]NativeChange, 0, len(body.Content))}
		for _, item := range body.Content {
			change, err := decodeNativeChange(item)
			if err != nil {
				return err
			}
			group.Changes = append(group.Changes, change)
		}
		groups = append(groups, group)
	}
	*g = groups
	return nil
}

// decodeNativeChange accepts a single record or a sequence of records.
func decodeNativeChange(node *yaml.Node) (NativeChange, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var r NativeRecord
		if err := node.Decode(&r); err != nil {
			return nil, err
		}
		return NativeChange{r}, nil
	case yaml.SequenceNode:
		var rs []NativeRecord
		if err := node.Decode(&rs); err != nil {
			return nil, err
		}
		return NativeChange(rs), nil
	default:
		return nil, fmt.Errorf("line %d: change must be a record or a list of records", node.Line)
	}
}

// LoadReplay reads a replay file.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	return ParseReplay(data)
}

// ParseReplay decodes replay YAML. Unknown fields are rejected.
func ParseReplay(data []byte) (*Replay, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f replayFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("replay file is empty")
		}
		return nil, fmt.Errorf("failed to parse replay file: %w", err)
	}

	r := &Replay{name: f.Algorithm, results: make(map[harness.Key][]Candidate, len(f.Results))}
	if r.name == "" {
		r.name = "replay"
	}
	for key, recorded := range f.Results {
		candidates := make([]Candidate, len(recorded))
		for i, rc := range recorded {
			candidates[i] = Candidate{
				Individual:    rc.Individual,
				Distance:      rc.Distance,
				Modifications: []ModificationGroup(rc.Modifications),
			}
		}
		r.results[key] = candidates
	}
	return r, nil
}

// Name returns the recorded algorithm name.
func (r *Replay) Name() string { return r.name }

// Len reports how many test cases have recorded candidates.
func (r *Replay) Len() int { return len(r.results) }

// Generate returns the candidates recorded for req.Key.
func (r *Replay) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recorded := r.results[req.Key]
	out := make([]Candidate, len(recorded))
	copy(out, recorded)
	return out, nil
}
