package reasoner

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/roach88/cfeval/internal/kb"
)

//go:embed rules.mg
var rulesSource string

// Mangle is a kb.Reasoner backed by the Mangle Datalog engine.
type Mangle struct {
	program *analysis.ProgramInfo
	logger  *slog.Logger
}

var _ kb.Reasoner = (*Mangle)(nil)

// New parses and analyzes the rule program once.
func New(logger *slog.Logger) (*Mangle, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	unit, err := parse.Unit(strings.NewReader(rulesSource))
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	program, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze rules: %w", err)
	}
	return &Mangle{program: program, logger: logger}, nil
}

// Check evaluates the rules over a fresh fact store built from snap.
func (m *Mangle) Check(ctx context.Context, snap *kb.Snapshot) (*kb.ConsistencyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := factstore.NewSimpleInMemoryStore()
	addFacts(store, snap)

	stats, err := engine.EvalProgramWithStats(m.program, store)
	if err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}
	m.logger.Debug("rules evaluated", "strata", len(stats.Strata))

	clashes, err := typeClashes(store)
	if err != nil {
		return nil, err
	}
	clashes = append(clashes, functionalClashes(snap)...)

	sort.SliceStable(clashes, func(i, j int) bool {
		if clashes[i].Individual != clashes[j].Individual {
			return clashes[i].Individual < clashes[j].Individual
		}
		return clashes[i].Reason < clashes[j].Reason
	})

	return &kb.ConsistencyReport{
		Consistent: len(clashes) == 0,
		Clashes:    clashes,
	}, nil
}

// DerivedTypes returns every class an individual is an instance of under the rules,
// sorted by IRI.
func (m *Mangle) DerivedTypes(ctx context.Context, snap *kb.Snapshot, individual string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := factstore.NewSimpleInMemoryStore()
	addFacts(store, snap)
	if _, err := engine.EvalProgramWithStats(m.program, store); err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}

	var types []string
	err := store.GetFacts(ast.NewQuery(ast.PredicateSym{Symbol: "has_type", Arity: 2}), func(a ast.Atom) error {
		if symbol(a.Args[0]) == individual {
			types = append(types, symbol(a.Args[1]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query has_type: %w", err)
	}
	sort.Strings(types)
	return types, nil
}

func addFacts(store factstore.FactStore, snap *kb.Snapshot) {
	add := func(pred string, args ...string) {
		terms := make([]ast.BaseTerm, len(args))
		for i, a := range args {
			terms[i] = ast.String(a)
		}
		store.Add(ast.NewAtom(pred, terms...))
	}

	for _, c := range snap.Classes {
		add("class", c)
	}
	for _, p := range snap.Subclasses {
		add("subclass_of", p.From, p.To)
	}
	for _, p := range snap.Disjoints {
		add("disjoint_with", p.From, p.To)
	}
	for _, p := range snap.Domains {
		add("domain_of", p.From, p.To)
	}
	for _, p := range snap.Ranges {
		add("range_of", p.From, p.To)
	}
	for _, p := range snap.Types {
		add("asserted_type", p.From, p.To)
	}
	for _, v := range snap.Values {
		add("value", v.Subject, v.Property, v.Object)
	}
}

func typeClashes(store factstore.FactStore) ([]kb.Clash, error) {
	var clashes []kb.Clash
	query := ast.NewQuery(ast.PredicateSym{Symbol: "type_clash", Arity: 3})
	err := store.GetFacts(query, func(a ast.Atom) error {
		c, d := symbol(a.Args[1]), symbol(a.Args[2])
		// Each clash is derived in both orientations.
		if c > d {
			return nil
		}
		clashes = append(clashes, kb.Clash{
			Individual: symbol(a.Args[0]),
			Reason:     fmt.Sprintf("instance of disjoint classes %s and %s", kb.LocalName(c), kb.LocalName(d)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query type_clash: %w", err)
	}
	return clashes, nil
}

func functionalClashes(snap *kb.Snapshot) []kb.Clash {
	functional := make(map[string]bool)
	for _, p := range snap.Properties {
		if p.Functional {
			functional[p.IRI] = true
		}
	}

	type key struct{ subject, property string }
	objects := make(map[key]map[string]bool)
	var order []key
	for _, v := range snap.Values {
		if !functional[v.Property] {
			continue
		}
		k := key{v.Subject, v.Property}
		if objects[k] == nil {
			objects[k] = make(map[string]bool)
			order = append(order, k)
		}
		objects[k][v.Object] = true
	}

	var clashes []kb.Clash
	for _, k := range order {
		if n := len(objects[k]); n > 1 {
			clashes = append(clashes, kb.Clash{
				Individual: k.subject,
				Reason:     fmt.Sprintf("functional property %s has %d values", kb.LocalName(k.property), n),
			})
		}
	}
	return clashes
}

func symbol(t ast.BaseTerm) string {
	if c, ok := t.(ast.Constant); ok {
		return c.Symbol
	}
	return t.String()
}
