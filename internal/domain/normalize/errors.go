package normalize

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var ErrShape = errors.New("unsupported payload shape")

// ShapeError reports valid JSON whose top level is not an accepted shape.
type ShapeError struct {
	// Kind describes what was found, e.g. "string" or "object without records".
	Kind string
}

func (e *ShapeError) Error() string { return fmt.Sprintf("%s: %s", ErrShape, e.Kind) }

func (e *ShapeError) Unwrap() error { return ErrShape }

// FieldWarning is a soft diagnostic for a field that fell back to its default.
// It is never returned as an error.
type FieldWarning struct {
	// Record is the 0-based position of the record in the input.
	Record int
	// Participant is the 0-based participant position, -1 for event fields.
	Participant int
	Field       string
	Value       string
}

func (w FieldWarning) String() string {
	if w.Participant < 0 {
		return fmt.Sprintf("record %d: %s: cannot use %q", w.Record, w.Field, w.Value)
	}
	return fmt.Sprintf("record %d participant %d: %s: cannot use %q", w.Record, w.Participant, w.Field, w.Value)
}
