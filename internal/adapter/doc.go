// Package adapter connects counterfactual-generation algorithms to the harness.
//
// An Algorithm returns candidates in its own native shape: per candidate a
// distance and an ordered list of modification groups keyed by the
// algorithm's change-type names. The Adapter materializes the test case,
// calls the algorithm, and maps every candidate except the "unmodified" group
// into an ir.Explanation. The individual is destroyed before Run returns.
//
// Native change-type names map as follows:
//
//	added    -> insert
//	removed  -> remove
//	modified -> modify
//	other    -> unknown (the native name is kept)
//
// A modify given as two records takes the first as the old target and the
// second as the new one.
package adapter
