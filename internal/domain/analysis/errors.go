package analysis

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoParticipants = errors.New("event has no participants")
	ErrDecode         = errors.New("cannot decode analysis")
)
