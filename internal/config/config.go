// Package config compiles CUE engine configuration into engine options.
//
// A config file is plain CUE checked against the closed #Config definition:
//
//	budget: 1000
//	debug:  true
//	equations: [
//		{lhs: "APP APP APP S I I APP APP S I I", rhs: "BOT"},
//	]
//
// Every field is optional. An absent equations field keeps the engine's
// default table; an empty list installs no equations at all.
package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
)

// Schema is the CUE definition every config value is unified with.
const Schema = `
#Config: {
	budget?: int & >=0
	debug?:  bool
	equations?: [...#Equation]
}

#Equation: {
	lhs: string
	rhs: string
}
`

// Config is a compiled engine configuration.
// Nil fields were not set in the source.
type Config struct {
	Budget    *int
	Debug     *bool
	Equations []ir.Equation // nil when absent, non-nil (possibly empty) when set

	// Source positions of each equation's lhs and rhs, for validation errors.
	positions [][2]token.Pos
}

// Options returns the engine options the config sets.
func (c *Config) Options() []engine.Option {
	var opts []engine.Option
	if c.Debug != nil {
		opts = append(opts, engine.WithDebug(*c.Debug))
	}
	if c.Equations != nil {
		opts = append(opts, engine.WithEquations(c.Equations))
	}
	return opts
}

// BudgetOr returns the configured budget, or def when none is set.
func (c *Config) BudgetOr(def int) int {
	if c.Budget == nil {
		return def
	}
	return *c.Budget
}

// Compile checks a CUE value against #Config and extracts it.
// Uses the CUE SDK's Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`budget: 10`, cue.Filename("hstar.cue"))
//	cfg, err := Compile(v)
func Compile(v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "config",
			Message: fmt.Sprintf("config must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	schema := v.Context().CompileString(Schema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	// Fields are read from the source value once it has been checked, so
	// presence and positions refer to the config file rather than the schema.
	cfg := &Config{}

	if budgetVal := v.LookupPath(cue.ParsePath("budget")); budgetVal.Exists() {
		n, err := budgetVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		budget := int(n)
		cfg.Budget = &budget
	}

	if debugVal := v.LookupPath(cue.ParsePath("debug")); debugVal.Exists() {
		debug, err := debugVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.Debug = &debug
	}

	if eqVal := v.LookupPath(cue.ParsePath("equations")); eqVal.Exists() {
		if err := parseEquations(eqVal, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// parseEquations extracts the equation list, keeping source positions.
func parseEquations(v cue.Value, cfg *Config) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	cfg.Equations = []ir.Equation{}
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		lhsVal := item.LookupPath(cue.ParsePath("lhs"))
		rhsVal := item.LookupPath(cue.ParsePath("rhs"))

		lhs, err := lhsVal.String()
		if err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("equations[%d].lhs", i),
				Message: err.Error(),
				Pos:     item.Pos(),
			}
		}
		rhs, err := rhsVal.String()
		if err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("equations[%d].rhs", i),
				Message: err.Error(),
				Pos:     item.Pos(),
			}
		}

		cfg.Equations = append(cfg.Equations, ir.Equation{LHS: lhs, RHS: rhs})
		cfg.positions = append(cfg.positions, [2]token.Pos{lhsVal.Pos(), rhsVal.Pos()})
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error, with its position when CUE has one
	firstErr := errs[0]
	compileErr := &CompileError{
		Field:   "cue",
		Message: firstErr.Error(),
	}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		compileErr.Pos = positions[0]
	}
	return compileErr
}
