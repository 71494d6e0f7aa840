package term

import (
	"errors"
	"fmt"
)

// SerializationError is returned when a term cannot be serialized.
//
// This always indicates a caller bug: the term (or one of its subterms) was
// not built by this store, was built before the last Reset, or carries an
// unknown variant tag.
type SerializationError struct {
	Term   string // Structural rendering of the offending subterm
	Reason string
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s: %s", e.Term, e.Reason)
}

// Code returns the error category for matching.
func (e *SerializationError) Code() string {
	return "SERIALIZATION_ERROR"
}

// InvariantError reports a broken Store invariant found by Validate.
// Never caused by valid external input.
type InvariantError struct {
	Check  string // Which invariant failed
	Term   string // Structural rendering of the offending term
	Detail string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invariant %q violated at %s: %s", e.Check, e.Term, e.Detail)
	}
	return fmt.Sprintf("invariant %q violated at %s", e.Check, e.Term)
}

// Code returns the error category for matching.
func (e *InvariantError) Code() string {
	return "INVARIANT_VIOLATION"
}

// IsSerializationError returns true if err wraps a SerializationError.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// IsInvariantError returns true if err wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
