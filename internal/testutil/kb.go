package testutil

import (
	"context"
	_ "embed"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/kb"
	"github.com/roach88/cfeval/internal/reasoner"
)

// PizzaOntology is a small ontology used across package tests.
//
//go:embed pizza.cue
var PizzaOntology []byte

// Pizza vocabulary.
const (
	PizzaBase        = "http://example.org/pizza"
	Pizza            = PizzaBase + "#Pizza"
	VegetarianPizza  = PizzaBase + "#VegetarianPizza"
	MeatyPizza       = PizzaBase + "#MeatyPizza"
	Topping          = PizzaBase + "#Topping"
	CheeseTopping    = PizzaBase + "#CheeseTopping"
	MeatTopping      = PizzaBase + "#MeatTopping"
	VegetableTopping = PizzaBase + "#VegetableTopping"
	TomatoTopping    = PizzaBase + "#TomatoTopping"
	SpicyTopping     = PizzaBase + "#SpicyTopping"
	ThinBase         = PizzaBase + "#ThinBase"
	DeepPanBase      = PizzaBase + "#DeepPanBase"
	HasTopping       = PizzaBase + "#hasTopping"
	HasBase          = PizzaBase + "#hasBase"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenPizzaKB opens a temp-dir knowledge base with the pizza ontology applied
// and the Mangle reasoner attached. It is closed when the test ends.
func OpenPizzaKB(t *testing.T) *kb.KB {
	t.Helper()

	r, err := reasoner.New(DiscardLogger())
	require.NoError(t, err)

	k, err := kb.Open(filepath.Join(t.TempDir(), "kb.db"), kb.WithReasoner(r))
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })

	ont, err := kb.ParseOntology(PizzaOntology, "pizza.cue")
	require.NoError(t, err)
	require.NoError(t, k.ApplyOntology(context.Background(), ont))
	return k
}
