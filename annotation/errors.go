package annotation

import (
	"errors"
	"fmt"
)

// ErrInputFormat is matched by every InputFormatError.
var ErrInputFormat = errors.New("invalid annotation input")

// InputFormatError reports malformed annotation structure: missing keys,
// wrong tuple arity, wrong element types or offsets outside the text.
type InputFormatError struct {
	Path   string // location in the document, e.g. "annotations[2][3]"
	Reason string // human-readable description
	Err    error  // underlying decode error, if any
}

func (e *InputFormatError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", ErrInputFormat, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", ErrInputFormat, msg)
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInputFormat) true for any InputFormatError.
func (e *InputFormatError) Is(target error) bool {
	return target == ErrInputFormat
}

func formatErr(path, reason string, err error) *InputFormatError {
	return &InputFormatError{Path: path, Reason: reason, Err: err}
}
