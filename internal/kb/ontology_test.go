package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOntologyFile_Pizza(t *testing.T) {
	ctx := context.Background()
	k, err := Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	defer k.Close()

	require.NoError(t, k.LoadOntologyFile(ctx, filepath.Join("..", "testutil", "pizza.cue")))
	assert.Equal(t, "http://example.org/pizza", k.Base())

	classes, err := k.Classes(ctx)
	require.NoError(t, err)
	assert.Len(t, classes, 13)

	p, err := k.LookupProperty(ctx, hasBase)
	require.NoError(t, err)
	assert.True(t, p.Functional)

	margherita, err := k.IndividualByName(ctx, "margherita")
	require.NoError(t, err)
	toppings, err := k.PropertyValues(ctx, margherita.IRI, hasTopping)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://example.org/pizza#mozzarella",
		"http://example.org/pizza#tomato",
	}, toppings)

	snap, err := k.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Disjoints, Pair{From: meat, To: cheese})
	assert.Contains(t, snap.Domains, Pair{From: hasTopping, To: pizza})
	assert.Contains(t, snap.Ranges, Pair{From: hasTopping, To: topping})
	assert.Len(t, snap.Values, 3)
}

func TestParseOntology_Defaults(t *testing.T) {
	ont, err := ParseOntology([]byte(`ontology: classes: [{iri: "urn:x#A"}]`), "min.cue")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseIRI, ont.Base)
	require.Len(t, ont.Classes, 1)
	assert.Empty(t, ont.Classes[0].SubClassOf)
	assert.Empty(t, ont.Properties)
}

func TestParseOntology_JSON(t *testing.T) {
	doc := `{"ontology": {"base": "urn:x", "properties": [{"iri": "urn:x#p", "functional": true}]}}`
	ont, err := ParseOntology([]byte(doc), "doc.json")
	require.NoError(t, err)
	require.Len(t, ont.Properties, 1)
	assert.True(t, ont.Properties[0].Functional)
}

func TestParseOntology_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", `ontology: classes: [{iri: "urn:x#A", colour: "red"}]`},
		{"individual without types", `ontology: individuals: [{name: "a", types: []}]`},
		{"functional not bool", `ontology: properties: [{iri: "urn:x#p", functional: "yes"}]`},
		{"syntax error", `ontology: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOntology([]byte(tt.doc), "bad.cue")
			require.Error(t, err)
			var se *SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestApplyOntology_UnknownReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	doc := `ontology: classes: [{iri: "urn:x#A", subClassOf: ["urn:x#Missing"]}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	k := createTestKB(t)
	err := k.LoadOntologyFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "subClassOf")
}
