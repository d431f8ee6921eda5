package resultcache

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var ErrCompute = errors.New("compute failed")

// ComputeError wraps a failed computation for one fingerprint.
type ComputeError struct {
	Fingerprint string
	Err         error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrCompute, e.Fingerprint, e.Err)
}

// Unwrap exposes both ErrCompute and the underlying cause.
func (e *ComputeError) Unwrap() []error { return []error{ErrCompute, e.Err} }
