package analysis

import (
	"math/rand"
	"time"
)

// Option applies a configuration option to the Heuristic analyzer.
type Option func(*Heuristic)

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(h *Heuristic) {
		if minLatency >= 0 && maxLatency >= minLatency {
			h.minLatency = minLatency
			h.maxLatency = maxLatency
		}
	}
}

// WithSeed seeds the latency jitter.
func WithSeed(seed int64) Option {
	return func(h *Heuristic) {
		h.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // jitter only
	}
}
