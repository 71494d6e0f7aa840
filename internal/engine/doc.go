// Package engine implements the hstar reduction engine.
//
// An Engine owns one term.Store and exposes the reduction entry points:
// Parse, Serialize, Apply, Normalize and Reset. Parsing is construction:
// every APP node is reduced as soon as both operands are built.
//
// ARCHITECTURE:
//
// Head Reduction:
// Apply walks the application spine into a head and an argument stack, then
// fires combinator rules until no rule applies:
//
//	TOP x...   = TOP          BOT x...   = BOT
//	I x        = x            K x y      = x
//	B x y z    = x (y z)      C x y z    = x z y
//	S x y z    = x z (y z)    (costs one budget unit)
//
// Remaining arguments are normalized and folded back onto the head.
//
// Budget:
// One Budget is shared by pointer through the whole call tree of a top-level
// call. Only S expansions consume it; I, K, B and C steps are free.
//
// Pending Protocol:
// When S has its arguments but no budget, the result is marked pending in
// the store. A later call with more budget resumes from the pending
// representative instead of starting over; results that reached normal form
// are memoized and returned directly by the cache probe.
//
// Equations:
// Reset clears the store and installs the configured equations in order.
// Each aliases the reduced left-hand side to the reduced right-hand side.
//
// CONCURRENCY:
// Every public method takes the engine mutex, so hash-consing lookups and
// inserts are atomic. Reduction itself is single-threaded and synchronous.
// Methods must not be called re-entrantly.
package engine
