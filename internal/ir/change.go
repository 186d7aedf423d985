package ir

import (
	"fmt"
)

// ChangeType classifies one atomic edit in a counterfactual explanation.
type ChangeType string

// Change type constants.
const (
	ChangeInsert ChangeType = "insert"
	ChangeRemove ChangeType = "remove"
	ChangeModify ChangeType = "modify"

	// ChangeUnknown marks a native change type the adapter does not recognize.
	// The native name is kept on AssertionChange.NativeType.
	ChangeUnknown ChangeType = "unknown"
)

// ParseChangeType converts a ground-truth type name into a ChangeType.
// Only insert, remove and modify are accepted.
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case ChangeInsert, ChangeRemove, ChangeModify:
		return ChangeType(s), nil
	default:
		return "", fmt.Errorf("unknown change type %q (want insert, remove or modify)", s)
	}
}

// indicators used when rendering changes as text.
var indicators = map[ChangeType]string{
	ChangeInsert: "+ ",
	ChangeRemove: "- ",
	ChangeModify: "+-",
}

// AssertionChange is one atomic edit: a property gained, lost or changed a target.
type AssertionChange struct {
	// Type is the normalized change type.
	Type ChangeType `json:"type"`

	// NativeType is the algorithm's own name for the change, kept for
	// diagnostics. Empty when the change was built directly.
	NativeType string `json:"native_type,omitempty"`

	// Property is the IRI of the changed property.
	Property string `json:"property"`

	// Value is the post-change target. May be empty only for remove.
	Value Value `json:"-"`

	// OldValue is the pre-change target. Non-nil if and only if Type is modify.
	OldValue Value `json:"-"`
}

// NewInsert creates an insert change.
func NewInsert(property string, value Value) AssertionChange {
	return AssertionChange{Type: ChangeInsert, Property: property, Value: value}
}

// NewRemove creates a remove change. value may be nil.
func NewRemove(property string, value Value) AssertionChange {
	return AssertionChange{Type: ChangeRemove, Property: property, Value: value}
}

// NewModify creates a modify change from old to new.
// A nil old value is replaced by an empty Set so the invariant holds.
func NewModify(property string, oldValue, newValue Value) AssertionChange {
	if oldValue == nil {
		oldValue = Set{}
	}
	return AssertionChange{Type: ChangeModify, Property: property, Value: newValue, OldValue: oldValue}
}

// NewUnknown creates a change whose native type has no normalized equivalent.
func NewUnknown(nativeType, property string, value Value) AssertionChange {
	return AssertionChange{Type: ChangeUnknown, NativeType: nativeType, Property: property, Value: value}
}

// Validate checks the structural invariants of a change.
func (c AssertionChange) Validate() error {
	if c.Property == "" {
		return fmt.Errorf("assertion change: property is required")
	}

	switch c.Type {
	case ChangeInsert, ChangeRemove, ChangeModify, ChangeUnknown:
	default:
		return fmt.Errorf("assertion change %s: invalid type %q", c.Property, c.Type)
	}

	if (c.Type == ChangeModify) != (c.OldValue != nil) {
		return fmt.Errorf("assertion change %s: old value must be set if and only if type is modify", c.Property)
	}

	if c.Type != ChangeRemove && IsEmptyValue(c.Value) {
		return fmt.Errorf("assertion change %s: value may be empty only for remove", c.Property)
	}

	return nil
}

// String renders the change as "<indicator> <property> [old => ]<value>".
func (c AssertionChange) String() string {
	indicator, ok := indicators[c.Type]
	if !ok {
		indicator = "? "
	}

	if IsEmptyValue(c.Value) {
		return fmt.Sprintf("%s %s", indicator, c.Property)
	}
	if c.OldValue != nil {
		return fmt.Sprintf("%s %s %s => %s", indicator, c.Property, c.OldValue, c.Value)
	}
	return fmt.Sprintf("%s %s %s", indicator, c.Property, c.Value)
}
