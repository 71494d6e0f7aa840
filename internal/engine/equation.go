package engine

import (
	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/term"
)

// Equation declares LHS and RHS equal. Both sides are term text.
//
// Installing an equation aliases the reduced LHS to the reduced RHS in the
// canonical table, so every later construction of LHS yields RHS.
type Equation = ir.Equation

// Omega is the self-application S I I (S I I), which diverges under the
// combinator rules.
const Omega = "APP APP APP S I I APP APP S I I"

// DefaultEquations returns the built-in axioms: Ω = BOT.
func DefaultEquations() []Equation {
	return []Equation{
		{LHS: Omega, RHS: "BOT"},
	}
}

// installEquations applies the equation table in order, each seeing the
// effects of the ones before it. Callers hold e.mu and have just reset the
// store.
func (e *Engine) installEquations() error {
	for i, eq := range e.equations {
		lhs, err := e.parse(eq.LHS, NewBudget(0))
		if err != nil {
			return &EquationError{Index: i, Equation: eq, Reason: "parsing left-hand side", Err: err}
		}
		rhs, err := e.parse(eq.RHS, NewBudget(0))
		if err != nil {
			return &EquationError{Index: i, Equation: eq, Reason: "parsing right-hand side", Err: err}
		}
		if lhs == rhs {
			e.logger.Debug("equation already holds", "index", i, "equation", eq.String())
			continue
		}
		if lhs.Kind() == term.KindAtom {
			if rhs.Kind() == term.KindAtom {
				return &EquationError{Index: i, Equation: eq, Reason: "equates two distinct constants"}
			}
			// Constants are permanently self-canonical; orient the equation.
			lhs, rhs = rhs, lhs
		}
		if !e.store.Alias(lhs, rhs) {
			return &EquationError{Index: i, Equation: eq, Reason: "cannot alias left-hand side"}
		}
		e.logger.Debug("equation installed", "index", i, "equation", eq.String())
	}
	return nil
}
