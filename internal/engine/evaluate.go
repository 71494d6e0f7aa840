package engine

import (
	"github.com/fritzo/libhstar/internal/term"
)

// Outcome is the result of Evaluate.
type Outcome struct {
	Term    *term.Term
	Output  string // Serialized Term
	Spent   int    // S steps paid for over all passes
	Pending bool   // Term still has unreduced S redexes
}

// Evaluate parses text and normalizes the result passes times, giving each
// pass a fresh budget of n S steps. A pass count below one is treated as one.
//
// Each pass picks up where the previous one stopped, so evaluating with
// passes=2 reaches the same term as two successive calls at the same budget.
// The engine stays locked for the whole evaluation; a concurrent Reset waits
// until the outcome is serialized.
func (e *Engine) Evaluate(text string, n, passes int) (Outcome, error) {
	if passes < 1 {
		passes = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.parse(text, NewBudget(0))
	if err != nil {
		return Outcome{}, err
	}

	spent := 0
	for i := 0; i < passes; i++ {
		b := NewBudget(n)
		if t, err = e.normalize(t, b); err != nil {
			return Outcome{}, err
		}
		spent += b.Spent()
		if !e.store.IsPending(t) {
			break
		}
	}

	pending := e.store.IsPending(t)
	if pending {
		e.logger.Debug("budget exhausted", "spent", spent, "passes", passes, "term", t.String())
	}
	out, err := e.store.Serialize(t)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Term:    t,
		Output:  out,
		Spent:   spent,
		Pending: pending,
	}, nil
}
