package harness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoaded is returned when test cases are requested before a batch is loaded.
var ErrNotLoaded = errors.New("test cases have not been loaded yet")

// ConfigError reports a malformed batch. Violations holds every problem found.
type ConfigError struct {
	Source     string
	Violations []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	prefix := "invalid batch"
	if e.Source != "" {
		prefix = fmt.Sprintf("invalid batch %s", e.Source)
	}
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", prefix, e.Violations[0])
	}
	return fmt.Sprintf("%s: %d violations:\n  %s", prefix, len(e.Violations), strings.Join(e.Violations, "\n  "))
}

// DuplicateKeyError lists every key that appears more than once in a batch.
type DuplicateKeyError struct {
	Keys []Key
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate keys found: %s", joinKeys(e.Keys))
}

// InconsistencyError names every test case whose materialization the reasoner rejected.
type InconsistencyError struct {
	Keys        []Key
	Diagnostics map[Key]string
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inconsistent test cases: %s", joinKeys(e.Keys))
	for _, k := range e.Keys {
		if d, ok := e.Diagnostics[k]; ok && d != "" {
			fmt.Fprintf(&b, "\n  %s: %s", k, d)
		}
	}
	return b.String()
}

// TestCaseError is a failure inside one test case.
type TestCaseError struct {
	Key   Key
	State State
	Err   error
}

// Error implements the error interface.
func (e *TestCaseError) Error() string {
	return fmt.Sprintf("test case %s: %s: %v", e.Key, e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *TestCaseError) Unwrap() error {
	return e.Err
}

func joinKeys(keys []Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
