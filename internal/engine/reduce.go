package engine

import (
	"github.com/fritzo/libhstar/internal/term"
)

// apply is the single entry point for reducing an application.
// Callers hold e.mu.
func (e *Engine) apply(lhs, rhs *term.Term, budget *Budget) (*term.Term, error) {
	head := lhs
	args := []*term.Term{rhs}
	pending := false
	var resumed *term.Term

	// Cache probe: each argument pair is fully reduced at most once.
	if rep, repPending, ok := e.store.Lookup(term.KindApp, lhs, rhs); ok {
		if !repPending {
			return rep, nil
		}
		// Continue from the partial result instead of the original pair.
		// pending stays false so the entry is cleared once nothing is left
		// to reduce.
		if rep.Kind() == term.KindApp {
			resumed = rep
			head = rep.Left()
			args[0] = rep.Right()
		}
	}

	var err error
loop:
	for {
		switch head.Kind() {
		case term.KindApp:
			args = append(args, head.Right())
			head = head.Left()
			continue
		case term.KindJoin:
			if len(args) > 0 {
				return nil, &UnsupportedReductionError{Head: head.String(), Args: len(args)}
			}
			break loop
		}

		n := len(args)
		switch head.Atom() {
		case term.TOP, term.BOT:
			// Absorbing: arguments are discarded unexamined.
			args = args[:0]
			break loop

		case term.I:
			if n < 1 {
				break loop
			}
			head = args[n-1]
			args = args[:n-1]

		case term.K:
			if n < 2 {
				break loop
			}
			// The second argument is dropped without being normalized.
			head = args[n-1]
			args = args[:n-2]

		case term.B:
			if n < 3 {
				break loop
			}
			x, y, z := args[n-1], args[n-2], args[n-3]
			args = args[:n-3]
			var yz *term.Term
			if yz, err = e.apply(y, z, budget); err != nil {
				return nil, err
			}
			if head, err = e.apply(x, yz, budget); err != nil {
				return nil, err
			}

		case term.C:
			if n < 3 {
				break loop
			}
			x, y, z := args[n-1], args[n-2], args[n-3]
			args = args[:n-3]
			var xz *term.Term
			if xz, err = e.apply(x, z, budget); err != nil {
				return nil, err
			}
			if head, err = e.apply(xz, y, budget); err != nil {
				return nil, err
			}

		case term.S:
			// Missing arguments make a normal form, not a stuck redex.
			if n < 3 {
				break loop
			}
			if !budget.Take() {
				pending = true
				break loop
			}
			x, y, z := args[n-1], args[n-2], args[n-3]
			args = args[:n-3]
			var xz, yz *term.Term
			if xz, err = e.apply(x, z, budget); err != nil {
				return nil, err
			}
			if yz, err = e.apply(y, z, budget); err != nil {
				return nil, err
			}
			if head, err = e.apply(xz, yz, budget); err != nil {
				return nil, err
			}

		default:
			break loop
		}
	}

	// Rebuild: normalize the remaining arguments and fold them onto head.
	for len(args) > 0 {
		arg := args[len(args)-1]
		args = args[:len(args)-1]
		if arg, err = e.normalize(arg, budget); err != nil {
			return nil, err
		}
		pending = pending || e.store.IsPending(arg)
		head = e.store.MakeApp(head, arg, pending)
	}

	e.store.Memoize(lhs, rhs, head, pending)
	if resumed != nil && resumed != head {
		// The partial result reduces to head as well.
		e.store.Memoize(resumed.Left(), resumed.Right(), head, pending)
	}
	e.validate()
	return head, nil
}

// normalize reduces a term: applications delegate to apply, joins are
// rebuilt from normalized operands, atoms are already normal.
func (e *Engine) normalize(t *term.Term, budget *Budget) (*term.Term, error) {
	switch t.Kind() {
	case term.KindApp:
		return e.apply(t.Left(), t.Right(), budget)
	case term.KindJoin:
		lhs, err := e.normalize(t.Left(), budget)
		if err != nil {
			return nil, err
		}
		rhs, err := e.normalize(t.Right(), budget)
		if err != nil {
			return nil, err
		}
		return e.join(lhs, rhs), nil
	default:
		return t, nil
	}
}

// join builds the canonical join: smaller operand first, equal operands
// collapsed. The join is pending if either operand is.
func (e *Engine) join(lhs, rhs *term.Term) *term.Term {
	c := term.Compare(lhs, rhs)
	if c == 0 {
		return lhs
	}
	if c > 0 {
		lhs, rhs = rhs, lhs
	}
	pending := e.store.IsPending(lhs) || e.store.IsPending(rhs)
	return e.store.MakeJoin(lhs, rhs, pending)
}
