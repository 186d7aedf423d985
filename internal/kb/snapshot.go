package kb

import (
	"context"
	"fmt"
)

// Snapshot copies the current classes, axioms, individuals and assertions.
func (k *KB) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	classes, err := k.Classes(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	snap.Classes = make([]string, len(classes))
	for i, c := range classes {
		snap.Classes[i] = c.IRI
	}

	if snap.Properties, err = k.Properties(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	pairQueries := []struct {
		dst   *[]Pair
		query string
	}{
		{&snap.Subclasses, `
			SELECT a.iri, b.iri FROM class_parents r
			JOIN classes a ON r.class_id = a.id
			JOIN classes b ON r.parent_id = b.id
			ORDER BY a.id, b.id`},
		{&snap.Disjoints, `
			SELECT a.iri, b.iri FROM class_disjoints r
			JOIN classes a ON r.a_id = a.id
			JOIN classes b ON r.b_id = b.id
			ORDER BY a.id, b.id`},
		{&snap.Domains, `
			SELECT p.iri, c.iri FROM property_domains r
			JOIN properties p ON r.property_id = p.id
			JOIN classes c ON r.class_id = c.id
			ORDER BY p.id, c.id`},
		{&snap.Ranges, `
			SELECT p.iri, c.iri FROM property_ranges r
			JOIN properties p ON r.property_id = p.id
			JOIN classes c ON r.class_id = c.id
			ORDER BY p.id, c.id`},
		{&snap.Types, `
			SELECT i.iri, c.iri FROM individual_types t
			JOIN individuals i ON t.individual_id = i.id
			JOIN classes c ON t.class_id = c.id
			ORDER BY i.id, t.position`},
	}
	for _, pq := range pairQueries {
		if *pq.dst, err = k.queryPairs(ctx, pq.query); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	rows, err := k.db.QueryContext(ctx, `SELECT iri FROM individuals ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query individuals: %w", err)
	}
	if snap.Individuals, err = scanStrings(rows); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	if snap.Values, err = k.queryTriples(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

func (k *KB) queryPairs(ctx context.Context, query string) ([]Pair, error) {
	rows, err := k.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	pairs := []Pair{}
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.From, &p.To); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	return pairs, nil
}

func (k *KB) queryTriples(ctx context.Context) ([]Triple, error) {
	rows, err := k.db.QueryContext(ctx, `
		SELECT s.iri, p.iri, o.iri
		FROM property_values v
		JOIN individuals s ON v.subject_id = s.id
		JOIN properties p ON v.property_id = p.id
		JOIN individuals o ON v.object_id = o.id
		ORDER BY v.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	triples := []Triple{}
	for rows.Next() {
		var t Triple
		if err := rows.Scan(&t.Subject, &t.Property, &t.Object); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return triples, nil
}
