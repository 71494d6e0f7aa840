package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fritzo/libhstar/internal/term"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeParse indicates malformed term text.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeSerialization indicates a foreign or malformed term was serialized.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_ERROR"

	// ErrCodeUnsupportedReduction indicates a join reached head position.
	ErrCodeUnsupportedReduction ErrorCode = "UNSUPPORTED_REDUCTION"

	// ErrCodeInvariantViolation indicates a store consistency bug.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeEquation indicates an equation could not be installed.
	ErrCodeEquation ErrorCode = "EQUATION_ERROR"

	// ErrCodeForeignTerm indicates a term from another store or from before
	// the last Reset was passed to a reduction entry point.
	ErrCodeForeignTerm ErrorCode = "FOREIGN_TERM"

	// ErrCodeUnknown is returned by CodeOf for errors outside this taxonomy.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// ParseErrorKind distinguishes the ways term text can be malformed.
type ParseErrorKind int

const (
	// ParseUnknownToken: a token is neither APP, JOIN nor an atom.
	ParseUnknownToken ParseErrorKind = iota + 1

	// ParseUnexpectedEOF: the input ended before a term was complete.
	ParseUnexpectedEOF

	// ParseTrailingTokens: tokens remain after a complete term.
	ParseTrailingTokens
)

// ParseError reports malformed term text. Never recovered silently.
type ParseError struct {
	Kind  ParseErrorKind
	Token string   // Offending token (ParseUnknownToken)
	Pos   int      // Zero-based token index where the error was detected
	Extra []string // Leftover tokens (ParseTrailingTokens)
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseUnknownToken:
		return fmt.Sprintf("unrecognized token %q at position %d", e.Token, e.Pos)
	case ParseUnexpectedEOF:
		return fmt.Sprintf("unexpected end of input at position %d", e.Pos)
	case ParseTrailingTokens:
		return fmt.Sprintf("unexpected tokens at position %d: %s", e.Pos, strings.Join(e.Extra, " "))
	default:
		return fmt.Sprintf("parse error at position %d", e.Pos)
	}
}

// Code returns the error category for matching.
func (e *ParseError) Code() string {
	return string(ErrCodeParse)
}

// UnsupportedReductionError is returned when head reduction reaches a join
// applied to arguments. Join elimination is deliberately not implemented.
type UnsupportedReductionError struct {
	Head string // Structural rendering of the join in head position
	Args int    // Number of pending arguments
}

// Error implements the error interface.
func (e *UnsupportedReductionError) Error() string {
	return fmt.Sprintf("reduction of join in head position is not implemented: %s applied to %d argument(s)", e.Head, e.Args)
}

// Code returns the error category for matching.
func (e *UnsupportedReductionError) Code() string {
	return string(ErrCodeUnsupportedReduction)
}

// EquationError is returned by Reset when an equation cannot be installed.
type EquationError struct {
	Index    int
	Equation Equation
	Reason   string
	Err      error // Underlying parse error, if any
}

// Error implements the error interface.
func (e *EquationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("equation %d (%s): %s: %v", e.Index, e.Equation, e.Reason, e.Err)
	}
	return fmt.Sprintf("equation %d (%s): %s", e.Index, e.Equation, e.Reason)
}

// Unwrap returns the underlying error.
func (e *EquationError) Unwrap() error {
	return e.Err
}

// Code returns the error category for matching.
func (e *EquationError) Code() string {
	return string(ErrCodeEquation)
}

// ForeignTermError is returned when a term not owned by the engine's store
// is passed to Apply, Normalize or Join.
type ForeignTermError struct {
	Term string
}

// Error implements the error interface.
func (e *ForeignTermError) Error() string {
	return fmt.Sprintf("term %s does not belong to this engine (built by another engine or before reset)", e.Term)
}

// Code returns the error category for matching.
func (e *ForeignTermError) Code() string {
	return string(ErrCodeForeignTerm)
}

// CodeOf returns the category of err, looking through wrapping.
// Returns ErrCodeUnknown for nil or uncategorized errors.
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return ErrorCode(coded.Code())
	}
	return ErrCodeUnknown
}

// IsParseError returns true if the error is a ParseError.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsUnsupportedReduction returns true if the error is an UnsupportedReductionError.
func IsUnsupportedReduction(err error) bool {
	var ue *UnsupportedReductionError
	return errors.As(err, &ue)
}

// IsEquationError returns true if the error is an EquationError.
func IsEquationError(err error) bool {
	var ee *EquationError
	return errors.As(err, &ee)
}

// IsForeignTerm returns true if the error is a ForeignTermError.
func IsForeignTerm(err error) bool {
	var fe *ForeignTermError
	return errors.As(err, &fe)
}

// IsSerializationError returns true if the error is a term.SerializationError.
func IsSerializationError(err error) bool {
	return term.IsSerializationError(err)
}

// IsInvariantError returns true if the error is a term.InvariantError.
func IsInvariantError(err error) bool {
	return term.IsInvariantError(err)
}
