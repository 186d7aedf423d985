package kb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefineClass records a class. Defining an existing IRI returns the stored class.
func (k *KB) DefineClass(ctx context.Context, iri string) (Class, error) {
	if iri == "" {
		return Class{}, fmt.Errorf("define class: iri is required")
	}

	_, err := k.db.ExecContext(ctx, `
		INSERT INTO classes (iri, name) VALUES (?, ?)
		ON CONFLICT(iri) DO NOTHING
	`, iri, LocalName(iri))
	if err != nil {
		return Class{}, fmt.Errorf("define class %s: %w", iri, err)
	}

	return k.LookupClass(ctx, iri)
}

// DefineProperty records a property. Redefining an IRI updates its functional flag.
func (k *KB) DefineProperty(ctx context.Context, iri string, functional bool) (Property, error) {
	if iri == "" {
		return Property{}, fmt.Errorf("define property: iri is required")
	}

	_, err := k.db.ExecContext(ctx, `
		INSERT INTO properties (iri, name, functional) VALUES (?, ?, ?)
		ON CONFLICT(iri) DO UPDATE SET functional = excluded.functional
	`, iri, LocalName(iri), boolToInt(functional))
	if err != nil {
		return Property{}, fmt.Errorf("define property %s: %w", iri, err)
	}

	return k.LookupProperty(ctx, iri)
}

// LookupClass returns the class with the given IRI or a *NotFoundError.
func (k *KB) LookupClass(ctx context.Context, iri string) (Class, error) {
	var c Class
	err := k.db.QueryRowContext(ctx, `
		SELECT id, iri, name FROM classes WHERE iri = ?
	`, iri).Scan(&c.ID, &c.IRI, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, &NotFoundError{Kind: "class", IRI: iri}
	}
	if err != nil {
		return Class{}, fmt.Errorf("lookup class %s: %w", iri, err)
	}
	return c, nil
}

// LookupProperty returns the property with the given IRI or a *NotFoundError.
func (k *KB) LookupProperty(ctx context.Context, iri string) (Property, error) {
	var (
		p          Property
		functional int
	)
	err := k.db.QueryRowContext(ctx, `
		SELECT id, iri, name, functional FROM properties WHERE iri = ?
	`, iri).Scan(&p.ID, &p.IRI, &p.Name, &functional)
	if errors.Is(err, sql.ErrNoRows) {
		return Property{}, &NotFoundError{Kind: "property", IRI: iri}
	}
	if err != nil {
		return Property{}, fmt.Errorf("lookup property %s: %w", iri, err)
	}
	p.Functional = functional == 1
	return p, nil
}

// AddSubclass declares child a subclass of parent. Both classes must exist.
func (k *KB) AddSubclass(ctx context.Context, child, parent string) error {
	return k.relateClasses(ctx, "class_parents", "class_id, parent_id", child, parent)
}

// AddDisjoint declares two classes disjoint. Both classes must exist.
func (k *KB) AddDisjoint(ctx context.Context, a, b string) error {
	return k.relateClasses(ctx, "class_disjoints", "a_id, b_id", a, b)
}

// AddDomain declares that subjects of property are instances of class.
func (k *KB) AddDomain(ctx context.Context, property, class string) error {
	return k.relatePropertyClass(ctx, "property_domains", property, class)
}

// AddRange declares that objects of property are instances of class.
func (k *KB) AddRange(ctx context.Context, property, class string) error {
	return k.relatePropertyClass(ctx, "property_ranges", property, class)
}

// Classes returns every defined class in definition order.
func (k *KB) Classes(ctx context.Context) ([]Class, error) {
	rows, err := k.db.QueryContext(ctx, `SELECT id, iri, name FROM classes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	classes := []Class{}
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.IRI, &c.Name); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}

// Properties returns every defined property in definition order.
func (k *KB) Properties(ctx context.Context) ([]Property, error) {
	rows, err := k.db.QueryContext(ctx, `
		SELECT id, iri, name, functional FROM properties ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	props := []Property{}
	for rows.Next() {
		var (
			p          Property
			functional int
		)
		if err := rows.Scan(&p.ID, &p.IRI, &p.Name, &functional); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.Functional = functional == 1
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return props, nil
}

func (k *KB) relateClasses(ctx context.Context, table, columns, from, to string) error {
	a, err := k.LookupClass(ctx, from)
	if err != nil {
		return err
	}
	b, err := k.LookupClass(ctx, to)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?) ON CONFLICT DO NOTHING`, table, columns)
	if _, err := k.db.ExecContext(ctx, query, a.ID, b.ID); err != nil {
		return fmt.Errorf("relate %s to %s: %w", from, to, err)
	}
	return nil
}

func (k *KB) relatePropertyClass(ctx context.Context, table, property, class string) error {
	p, err := k.LookupProperty(ctx, property)
	if err != nil {
		return err
	}
	c, err := k.LookupClass(ctx, class)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (property_id, class_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, table)
	if _, err := k.db.ExecContext(ctx, query, p.ID, c.ID); err != nil {
		return fmt.Errorf("relate %s to %s: %w", property, class, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
