package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fritzo/libhstar/internal/term"
)

// Engine is an independent reduction universe: one term store plus the
// equations re-installed on every Reset.
//
// Thread-safety model:
//   - All public methods are serialized on a single mutex
//   - Terms returned by one Engine are only valid for that Engine, and only
//     until its next Reset
//
// INVARIANTS:
//   - equations order NEVER changes after construction
//   - in debug mode the store validates after every Apply
type Engine struct {
	mu        sync.Mutex
	store     *term.Store
	equations []Equation
	debug     bool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEquations replaces the default equation table.
// The slice is copied; equations are installed in the given order.
func WithEquations(eqs []Equation) Option {
	return func(e *Engine) {
		e.equations = append([]Equation(nil), eqs...)
	}
}

// WithDebug enables store validation after every Apply.
// A failed validation panics with a *term.InvariantError.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithLogger sets the logger for reset and reduction diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine and resets it, installing its equations.
//
// Returns an *EquationError if any equation cannot be installed.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		store:     term.NewStore(),
		equations: DefaultEquations(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with equations known to be valid.
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Reset clears the store, re-seeds the constants and re-installs the
// equations in order. Every compound term built before Reset becomes foreign.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Reset()
	if err := e.installEquations(); err != nil {
		return err
	}
	e.logger.Debug("engine reset",
		"equations", len(e.equations),
		"terms", e.store.Len(),
		"pending", e.store.PendingLen())
	return nil
}

// Equations returns a copy of the installed equation table.
func (e *Engine) Equations() []Equation {
	return append([]Equation(nil), e.equations...)
}

// Debug reports whether store validation runs after every Apply.
func (e *Engine) Debug() bool {
	return e.debug
}

// Atom returns the unique term for constant a.
func (e *Engine) Atom(a term.Atom) *term.Term {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Atom(a)
}

// Parse builds and reduces a term from prefix text with an empty budget.
func (e *Engine) Parse(text string) (*term.Term, error) {
	return e.ParseBudget(text, NewBudget(0))
}

// ParseBudget builds and reduces a term from prefix text. Every APP node is
// reduced under b as soon as both of its operands are built.
func (e *Engine) ParseBudget(text string, b *Budget) (*term.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parse(text, b)
}

// Serialize renders t in prefix notation. No reduction is performed.
func (e *Engine) Serialize(t *term.Term) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Serialize(t)
}

// Apply reduces the application of lhs to rhs under budget b.
func (e *Engine) Apply(lhs, rhs *term.Term, b *Budget) (*term.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOwned(lhs, rhs); err != nil {
		return nil, err
	}
	return e.apply(lhs, rhs, b)
}

// Normalize reduces t under budget b.
//
// Calling Normalize again with a larger budget resumes from where the
// previous call stopped rather than starting over.
func (e *Engine) Normalize(t *term.Term, b *Budget) (*term.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOwned(t); err != nil {
		return nil, err
	}
	result, err := e.normalize(t, b)
	if err != nil {
		return nil, err
	}
	if e.store.IsPending(result) {
		e.logger.Debug("budget exhausted", "spent", b.Spent(), "term", result.String())
	}
	return result, nil
}

// Join builds the canonical join of two terms: operands are ordered by
// term.Compare and equal operands collapse to one.
func (e *Engine) Join(lhs, rhs *term.Term) (*term.Term, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOwned(lhs, rhs); err != nil {
		return nil, err
	}
	return e.join(lhs, rhs), nil
}

// IsPending reports whether t stopped reducing because a budget ran out.
func (e *Engine) IsPending(t *term.Term) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsPending(t)
}

// Validate runs the store consistency check.
func (e *Engine) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Validate()
}

// Stats summarizes the store.
type Stats struct {
	Terms   int `json:"terms"`   // Keys in the canonical table
	Pending int `json:"pending"` // Members of the pending set
	Aliases int `json:"aliases"` // Keys that are not self-canonical
}

// Stats returns the current store statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Terms:   e.store.Len(),
		Pending: e.store.PendingLen(),
		Aliases: e.store.Aliases(),
	}
}

// checkOwned rejects terms that do not belong to the store.
func (e *Engine) checkOwned(terms ...*term.Term) error {
	for _, t := range terms {
		if !e.store.Contains(t) {
			return &ForeignTermError{Term: t.String()}
		}
	}
	return nil
}

// validate panics on a broken store invariant. Debug mode only.
func (e *Engine) validate() {
	if !e.debug {
		return
	}
	if err := e.store.Validate(); err != nil {
		panic(fmt.Errorf("engine: %w", err))
	}
}
