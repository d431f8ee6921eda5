package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoEventSet    = errors.New("no event set loaded")
	ErrEmptyEventSet = errors.New("payload contains no events")
	ErrStaleEventSet = errors.New("event set replaced while analysis was running")
	ErrUnknownBias   = errors.New("unknown track bias")
)
