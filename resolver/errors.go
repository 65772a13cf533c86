package resolver

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below.
var (
	// ErrValidation indicates an identifier that cannot yield a document id.
	ErrValidation = errors.New("invalid document identifier")
	// ErrParse indicates a review suffix that is not a valid number.
	ErrParse = errors.New("invalid review suffix")
)

// ValidationError is returned when the first paragraph identifier is not a
// string, or is too short for the rule its prefix selects.
type ValidationError struct {
	Value   string // the offending value as it appeared in the input
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %s)", ErrValidation, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ParseError is returned when an entity identifier ends in a segment that
// starts with "Rv" but is not followed by a non-negative integer.
type ParseError struct {
	EntityID string
	Segment  string
	Err      error // strconv failure, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q in entity id %q", ErrParse, e.Segment, e.EntityID)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}
