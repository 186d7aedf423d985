package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayYAML = `
algorithm: ceo
results:
  1:
    - individual: cf-1
      distance: 0.5
      modifications:
        unmodified:
          - property: p
            instance: keep
        removed:
          - property: p
            types: [A]
        modified:
          - - {property: q, types: [B]}
            - {property: q, types: [C]}
    - individual: cf-2
      distance: 1
      modifications:
        added:
          - property: p
            instance: x
  "two": []
`

func TestParseReplay(t *testing.T) {
	r, err := ParseReplay([]byte(replayYAML))
	require.NoError(t, err)
	assert.Equal(t, "ceo", r.Name())
	assert.Equal(t, 2, r.Len())

	got, err := r.Generate(context.Background(), Request{Key: "1"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "cf-1", first.Individual)
	assert.Equal(t, 0.5, first.Distance)
	require.Len(t, first.Modifications, 3)
	assert.Equal(t, []string{UnmodifiedGroup, "removed", "modified"}, []string{
		first.Modifications[0].Type,
		first.Modifications[1].Type,
		first.Modifications[2].Type,
	})
	require.Len(t, first.Modifications[2].Changes, 1)
	assert.Equal(t, NativeChange{
		{Property: "q", Types: []string{"B"}},
		{Property: "q", Types: []string{"C"}},
	}, first.Modifications[2].Changes[0])
}

func TestReplay_UnknownKeyYieldsNothing(t *testing.T) {
	r, err := ParseReplay([]byte(replayYAML))
	require.NoError(t, err)

	got, err := r.Generate(context.Background(), Request{Key: "missing"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.Generate(context.Background(), Request{Key: "two"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplay_DefaultName(t *testing.T) {
	r, err := ParseReplay([]byte("results: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "replay", r.Name())
}

func TestReplay_CanceledContext(t *testing.T) {
	r, err := ParseReplay([]byte(replayYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Generate(ctx, Request{Key: "1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseReplay_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "replay file is empty"},
		{"unknown field", "algorithm: x\nextra: 1\n", "field extra not found"},
		{"modifications not mapping", "results:\n  1:\n    - modifications: [a]\n", "modifications must be a mapping"},
		{"group not sequence", "results:\n  1:\n    - modifications: {added: 1}\n", "group added must be a sequence"},
		{"bad change", "results:\n  1:\n    - modifications: {added: [1]}\n", "change must be a record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReplay([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(replayYAML), 0o644))

	r, err := LoadReplay(path)
	require.NoError(t, err)
	assert.Equal(t, "ceo", r.Name())

	_, err = LoadReplay(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
