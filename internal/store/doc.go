// Package store provides SQLite-backed durable storage for evaluation runs.
//
// A run records, in order:
//   - Results: one row per evaluated test case, with its checkpoints
//   - Explanations: the ranked explanations of each result, fingerprinted
//   - Changes: the assertion changes of each explanation, in order
//   - Reports: the final text and data of each analyzer
//
// Rows are append-only and written idempotently: writing the same result or
// report twice keeps the first. Readers order by rank and position so a run
// reads back exactly as it was written.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
