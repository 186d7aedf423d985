package kb

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// ErrIndividualExists is returned when an individual name is already taken.
var ErrIndividualExists = errors.New("individual already exists")

// ErrNoReasoner is returned by CheckConsistency when no reasoner is configured.
var ErrNoReasoner = errors.New("no reasoner configured")

// NotFoundError reports a class, property or individual lookup that failed.
type NotFoundError struct {
	// Kind is "class", "property" or "individual".
	Kind string

	// IRI is the identifier that was looked up.
	IRI string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s was not found", e.Kind, e.IRI)
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound returns true if the error is a lookup failure.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
