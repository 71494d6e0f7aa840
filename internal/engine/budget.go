package engine

// Budget is the number of S expansions a reduction may still perform.
//
// One Budget is threaded by pointer through every recursive Apply and
// Normalize call of a single top-level call, so the total S work of that call
// is bounded regardless of nesting depth. It is never reset by sub-calls.
//
// A nil *Budget behaves as an exhausted budget.
type Budget struct {
	remaining int
	spent     int
}

// NewBudget creates a budget allowing n S expansions.
// Negative values are treated as zero.
func NewBudget(n int) *Budget {
	if n < 0 {
		n = 0
	}
	return &Budget{remaining: n}
}

// Take consumes one unit if available.
// Returns false, consuming nothing, when the budget is exhausted.
func (b *Budget) Take() bool {
	if b == nil || b.remaining == 0 {
		return false
	}
	b.remaining--
	b.spent++
	return true
}

// Remaining returns the number of units left.
func (b *Budget) Remaining() int {
	if b == nil {
		return 0
	}
	return b.remaining
}

// Spent returns the number of units consumed so far.
// Used for logging and the run journal.
func (b *Budget) Spent() int {
	if b == nil {
		return 0
	}
	return b.spent
}

// Exhausted reports whether no units remain.
func (b *Budget) Exhausted() bool {
	return b.Remaining() == 0
}
