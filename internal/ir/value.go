package ir

import (
	"slices"
	"strings"
)

// Value is a sealed interface for the target of an assertion change.
// Only Single and Set implement it.
type Value interface {
	// IRIs returns the identifiers carried by the value in declaration order.
	IRIs() []string

	// IsEmpty reports whether the value carries no identifier at all.
	IsEmpty() bool

	String() string

	value() // Sealed
}

// Single is one identifier, typically an individual IRI.
type Single string

func (Single) value() {}

// IRIs returns the single identifier.
func (s Single) IRIs() []string {
	if s == "" {
		return []string{}
	}
	return []string{string(s)}
}

// IsEmpty reports whether the identifier is empty.
func (s Single) IsEmpty() bool { return s == "" }

func (s Single) String() string { return string(s) }

// Set is an ordered collection of identifiers, typically the type-set of the
// individual an assertion points at. Comparison is order-independent.
type Set []string

func (Set) value() {}

// NewSet builds a Set, copying the given identifiers. The result is never nil.
func NewSet(iris ...string) Set {
	out := make(Set, len(iris))
	copy(out, iris)
	return out
}

// IRIs returns the identifiers in declaration order.
func (s Set) IRIs() []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone([]string(s))
}

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool { return len(s) == 0 }

func (s Set) String() string {
	return "[" + strings.Join(s, ", ") + "]"
}

// SameMembers reports whether both sets contain the same identifiers,
// ignoring order and multiplicity.
func (s Set) SameMembers(other []string) bool {
	left := distinct(s)
	right := distinct(other)
	return slices.Equal(left, right)
}

func distinct(iris []string) []string {
	out := slices.Clone(iris)
	slices.Sort(out)
	return slices.Compact(out)
}

// IsEmptyValue reports whether v is nil or carries no identifier.
func IsEmptyValue(v Value) bool {
	return v == nil || v.IsEmpty()
}
