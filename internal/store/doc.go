// Package store provides the SQLite-backed run report written by
// `pyken build --report` and read by `pyken report`.
//
// A report is append-only:
//   - Runs: one row per build or check, with merged options as canonical JSON
//   - Files: per-source outcome (artifact path, source digest, IR fingerprint)
//   - Diagnostics: the sorted diagnostics of the run
//
// # Ordering
//
// Runs are ordered by seq INTEGER, assigned as MAX(seq)+1 inside the write
// transaction, never by timestamps. Files read back ordered by path and
// diagnostics in the order they were written, so two reports of the same
// inputs compare equal apart from run IDs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs are UUIDv7 (github.com/google/uuid) unless a test injects an
// IDGenerator.
package store
