package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/fritzo/libhstar/internal/engine"
)

// Validation error codes (E100-E199)
const (
	ErrEquationSideEmpty = "E101" // lhs or rhs is blank
	ErrEquationParse     = "E102" // a side is not a well-formed term
	ErrEquationDuplicate = "E103" // the same equation appears twice
)

// ValidationError represents a term-level config error.
type ValidationError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Pos     token.Pos `json:"-"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d:%d: %s: %s",
			e.Code, e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks that every equation side is a well-formed term.
// Returns all errors found (does not fail-fast).
//
// Sides are parsed on a scratch engine without equations, so a config is
// never judged by the table it is about to replace.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	if len(cfg.Equations) == 0 {
		return errs
	}

	scratch, err := engine.New(
		engine.WithEquations(nil),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return []ValidationError{{
			Field:   "equations",
			Message: err.Error(),
			Code:    ErrEquationParse,
		}}
	}

	seen := make(map[string]int)
	for i, eq := range cfg.Equations {
		lhsPos, rhsPos := cfg.position(i)
		errs = append(errs, validateSide(scratch, eq.LHS, fmt.Sprintf("equations[%d].lhs", i), lhsPos)...)
		errs = append(errs, validateSide(scratch, eq.RHS, fmt.Sprintf("equations[%d].rhs", i), rhsPos)...)

		key := eq.String()
		if first, ok := seen[key]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("equations[%d]", i),
				Message: fmt.Sprintf("duplicate of equations[%d]: %s", first, key),
				Code:    ErrEquationDuplicate,
				Pos:     lhsPos,
			})
			continue
		}
		seen[key] = i
	}
	return errs
}

func validateSide(scratch *engine.Engine, text, field string, pos token.Pos) []ValidationError {
	if strings.TrimSpace(text) == "" {
		return []ValidationError{{
			Field:   field,
			Message: "term is required and must be non-empty",
			Code:    ErrEquationSideEmpty,
			Pos:     pos,
		}}
	}
	if _, err := scratch.Parse(text); err != nil {
		return []ValidationError{{
			Field:   field,
			Message: err.Error(),
			Code:    ErrEquationParse,
			Pos:     pos,
		}}
	}
	return nil
}

// position returns the source positions of equation i, if known.
func (c *Config) position(i int) (lhs, rhs token.Pos) {
	if i < len(c.positions) {
		return c.positions[i][0], c.positions[i][1]
	}
	return token.NoPos, token.NoPos
}
