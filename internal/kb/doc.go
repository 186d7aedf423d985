// Package kb provides the SQLite-backed ontology knowledge base.
//
// The knowledge base stores classes, properties and individuals together with
// the assertions that connect them:
//   - Classes: subclass and disjointness axioms
//   - Properties: functional flag, domain and range axioms
//   - Individuals: ordered type-sets
//   - Property values: append-only (subject, property, object) rows
//
// # Assertion Semantics
//
// Functional properties are single-valued: SetPropertyValue replaces every
// existing value for the (subject, property) pair. Non-functional properties
// accumulate: AppendPropertyValue adds a row even when an identical row is
// already present.
//
// Destroying an individual retracts it, its types and every property value
// that mentions it as subject or object (ON DELETE CASCADE).
//
// # Reasoning
//
// The knowledge base does not reason on its own. CheckConsistency takes a
// Snapshot of the current state and hands it to the configured Reasoner.
// Results are scoped to the state at the time of the call.
//
// # Sequential Access
//
// One KB is a single shared mutable store. Callers must not interleave the
// materialization of two test cases against the same KB.
package kb
