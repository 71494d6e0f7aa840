// Package store provides the SQLite-backed run journal.
//
// Every reduction performed through the CLI is appended as an ir.Run:
//   - Runs: input text, budget, output, spent units, pending flag
//   - Equation tables: the equations a run was reduced under, by hash
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), NEVER timestamps. Queries
// use ORDER BY seq ASC, id ASC COLLATE BINARY so replays read runs in the
// same order on every machine.
//
// # Identity
//
// Run ids and equation hashes are computed in internal/ir with RFC 8785
// canonical JSON and SHA-256 with domain separation. Writes are idempotent:
// a duplicate id is silently ignored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: A run must reference a stored equation table
//
// # Layout
//
// The header carries application_id "hstr" and the layout version in
// user_version. Open migrates older journals forward and refuses files
// owned by other programs or written by a newer build.
package store
