package kb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// CreateIndividual creates a named individual typed with the given classes.
// The class order is preserved and reported back by TypesOf.
//
// Returns ErrIndividualExists (wrapped) if the name is taken and a
// *NotFoundError if any class is undefined. Nothing is written on failure.
func (k *KB) CreateIndividual(ctx context.Context, name string, classes []string) (Individual, error) {
	if name == "" {
		return Individual{}, fmt.Errorf("create individual: name is required")
	}
	if len(classes) == 0 {
		return Individual{}, fmt.Errorf("create individual %s: at least one class is required", name)
	}

	classIDs := make([]int64, 0, len(classes))
	for _, iri := range classes {
		c, err := k.LookupClass(ctx, iri)
		if err != nil {
			return Individual{}, fmt.Errorf("create individual %s: %w", name, err)
		}
		classIDs = append(classIDs, c.ID)
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return Individual{}, fmt.Errorf("create individual %s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	ind := Individual{IRI: k.IndividualIRI(name), Name: name}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO individuals (iri, name) VALUES (?, ?)
	`, ind.IRI, ind.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return Individual{}, fmt.Errorf("create individual %s: %w", name, ErrIndividualExists)
		}
		return Individual{}, fmt.Errorf("create individual %s: %w", name, err)
	}
	if ind.ID, err = res.LastInsertId(); err != nil {
		return Individual{}, fmt.Errorf("create individual %s: %w", name, err)
	}

	for pos, classID := range classIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO individual_types (individual_id, class_id, position)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, ind.ID, classID, pos); err != nil {
			return Individual{}, fmt.Errorf("create individual %s: type: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Individual{}, fmt.Errorf("create individual %s: commit: %w", name, err)
	}

	k.logger.Debug("individual created", "individual", ind.IRI, "types", classes)
	return ind, nil
}

// LookupIndividual returns the individual with the given IRI or a *NotFoundError.
func (k *KB) LookupIndividual(ctx context.Context, iri string) (Individual, error) {
	var ind Individual
	err := k.db.QueryRowContext(ctx, `
		SELECT id, iri, name FROM individuals WHERE iri = ?
	`, iri).Scan(&ind.ID, &ind.IRI, &ind.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Individual{}, &NotFoundError{Kind: "individual", IRI: iri}
	}
	if err != nil {
		return Individual{}, fmt.Errorf("lookup individual %s: %w", iri, err)
	}
	return ind, nil
}

// IndividualByName looks up an individual created under the current base IRI.
func (k *KB) IndividualByName(ctx context.Context, name string) (Individual, error) {
	return k.LookupIndividual(ctx, k.IndividualIRI(name))
}

// SetPropertyValue makes object the only value of a property on subject.
func (k *KB) SetPropertyValue(ctx context.Context, subject, property, object string) error {
	return k.writeValue(ctx, subject, property, object, true)
}

// AppendPropertyValue adds object to the values of a property on subject.
// Identical values are recorded again.
func (k *KB) AppendPropertyValue(ctx context.Context, subject, property, object string) error {
	return k.writeValue(ctx, subject, property, object, false)
}

func (k *KB) writeValue(ctx context.Context, subject, property, object string, replace bool) error {
	s, err := k.LookupIndividual(ctx, subject)
	if err != nil {
		return err
	}
	p, err := k.LookupProperty(ctx, property)
	if err != nil {
		return err
	}
	o, err := k.LookupIndividual(ctx, object)
	if err != nil {
		return err
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write value: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if replace {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM property_values WHERE subject_id = ? AND property_id = ?
		`, s.ID, p.ID); err != nil {
			return fmt.Errorf("write value: clear %s: %w", property, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO property_values (subject_id, property_id, object_id) VALUES (?, ?, ?)
	`, s.ID, p.ID, o.ID); err != nil {
		return fmt.Errorf("write value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write value: commit: %w", err)
	}
	return nil
}

// PropertyValues returns the objects of a property on subject in assertion order.
func (k *KB) PropertyValues(ctx context.Context, subject, property string) ([]string, error) {
	rows, err := k.db.QueryContext(ctx, `
		SELECT o.iri
		FROM property_values v
		JOIN individuals s ON v.subject_id = s.id
		JOIN properties p ON v.property_id = p.id
		JOIN individuals o ON v.object_id = o.id
		WHERE s.iri = ? AND p.iri = ?
		ORDER BY v.id ASC
	`, subject, property)
	if err != nil {
		return nil, fmt.Errorf("query property values: %w", err)
	}
	return scanStrings(rows)
}

// DestroyIndividual retracts an individual together with its types and every
// property value that mentions it. Destroying an absent individual is a no-op.
func (k *KB) DestroyIndividual(ctx context.Context, iri string) error {
	res, err := k.db.ExecContext(ctx, `DELETE FROM individuals WHERE iri = ?`, iri)
	if err != nil {
		return fmt.Errorf("destroy individual %s: %w", iri, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		k.logger.Debug("individual destroyed", "individual", iri)
	}
	return nil
}

// InstancesOf returns the individuals directly asserted as instances of a class,
// in creation order.
func (k *KB) InstancesOf(ctx context.Context, class string) ([]Individual, error) {
	c, err := k.LookupClass(ctx, class)
	if err != nil {
		return nil, err
	}

	rows, err := k.db.QueryContext(ctx, `
		SELECT i.id, i.iri, i.name
		FROM individual_types t
		JOIN individuals i ON t.individual_id = i.id
		WHERE t.class_id = ?
		ORDER BY i.id ASC
	`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("query instances of %s: %w", class, err)
	}
	defer rows.Close()

	instances := []Individual{}
	for rows.Next() {
		var ind Individual
		if err := rows.Scan(&ind.ID, &ind.IRI, &ind.Name); err != nil {
			return nil, fmt.Errorf("scan individual: %w", err)
		}
		instances = append(instances, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

// TypesOf returns the asserted classes of an individual in the order they were given.
func (k *KB) TypesOf(ctx context.Context, iri string) ([]string, error) {
	ind, err := k.LookupIndividual(ctx, iri)
	if err != nil {
		return nil, err
	}

	rows, err := k.db.QueryContext(ctx, `
		SELECT c.iri
		FROM individual_types t
		JOIN classes c ON t.class_id = c.id
		WHERE t.individual_id = ?
		ORDER BY t.position ASC
	`, ind.ID)
	if err != nil {
		return nil, fmt.Errorf("query types of %s: %w", iri, err)
	}
	return scanStrings(rows)
}

// CountIndividuals returns the number of live individuals.
func (k *KB) CountIndividuals(ctx context.Context) (int, error) {
	var n int
	if err := k.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM individuals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count individuals: %w", err)
	}
	return n, nil
}

// CountPropertyValues returns the number of property value rows.
func (k *KB) CountPropertyValues(ctx context.Context) (int, error) {
	var n int
	if err := k.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM property_values`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count property values: %w", err)
	}
	return n, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
