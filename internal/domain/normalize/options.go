package normalize

import "time"

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock used when synthesizing participant ids.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}
