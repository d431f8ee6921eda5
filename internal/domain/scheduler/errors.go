package scheduler

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotViewing      = errors.New("no event set loaded")
	ErrIndexOutOfRange = errors.New("event index out of range")
)
