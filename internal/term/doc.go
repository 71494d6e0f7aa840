// Package term provides the hash-consed term graph for the hstar calculus.
//
// A term is one of:
//   - an atom: TOP, BOT, I, K, B, C, S
//   - an application App(left, right)
//   - a join Join(left, right), commutative, with left strictly before right
//     under Compare
//
// Terms are created only by a Store. The store owns two structures:
//
// Canonical Table:
// Every structural shape has exactly one key object. The table maps each key
// to its current representative. Most keys are self-canonical; equations and
// memoized reductions alias a key to a different representative. Lookups
// follow alias chains to the terminal representative.
//
// Pending Set:
// Representatives whose reduction stopped because the work budget ran out.
// Atoms are never pending; an aliased key is never pending.
//
// INVARIANTS:
//   - Structurally identical constructions return the identical *Term
//   - Every atom is its own representative, permanently, and never pending
//   - Alias chains are acyclic
//
// A Store is not safe for concurrent use. Callers that share one store
// across goroutines must serialize every operation (see engine.Engine).
package term
