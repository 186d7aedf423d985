// Package ir provides the normalized explanation representation shared by
// algorithm adapters, analyzers and the results store.
//
// Every algorithm adapter maps its native output into these types; every
// analyzer reads only these types. ir imports nothing internal, so it stays
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Assertion values are a sealed variant (Single or Set) decided once by
//     the adapter. Comparators never re-infer whether a value is a collection.
//   - OldValue is present if and only if the change type is modify.
//   - Sparsity always equals the number of changed assertions.
//   - Explanation fingerprints use canonical JSON (sorted keys, NFC strings)
//     so the same change list always hashes to the same ID.
package ir
