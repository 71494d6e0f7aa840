// Package ir holds the records shared between the engine, the run journal
// and the CLI, plus the canonical encoding used to give them stable
// content-addressed identities.
//
// ir imports nothing internal; every other internal package may import it.
//
// Key design constraints:
//   - NO float types anywhere - budgets and counters are int64
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
