package ir

import (
	"fmt"
	"strings"
)

// ExpectedChange is one entry of a ground-truth modification set.
type ExpectedChange struct {
	Type     ChangeType `json:"type"`
	Property string     `json:"property"`

	// NewValue holds the expected post-change identifiers.
	// Only meaningful when HasNewValue is true.
	NewValue []string `json:"new_value,omitempty"`

	// HasNewValue is false for open-ended expectations that match on type and
	// property alone.
	HasNewValue bool `json:"-"`
}

func (c ExpectedChange) String() string {
	if !c.HasNewValue {
		return fmt.Sprintf("%s %s", c.Type, c.Property)
	}
	return fmt.Sprintf("%s %s [%s]", c.Type, c.Property, strings.Join(c.NewValue, ", "))
}

// ExpectedSet is the ground truth for one acceptable explanation.
// It is compared as a multiset: order carries no meaning.
type ExpectedSet []ExpectedChange
