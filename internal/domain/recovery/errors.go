package recovery

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoStructure = errors.New("no valid json structure")

	// ErrNotApplicable means a strategy found nothing to try in the text.
	ErrNotApplicable = errors.New("strategy not applicable")
	// ErrInvalid means a strategy's candidate did not parse.
	ErrInvalid = errors.New("candidate is not valid json")
)

// RecoveryError is returned when every strategy failed.
type RecoveryError struct {
	// Excerpt is the head of the original text.
	Excerpt string
	// Tried lists the strategies attempted, in order.
	Tried []string
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("%s: tried %d strategies, text starts %q", ErrNoStructure, len(e.Tried), e.Excerpt)
}

func (e *RecoveryError) Unwrap() error { return ErrNoStructure }
