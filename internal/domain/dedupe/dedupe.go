// Package dedupe tracks keys that must be acted on at most once.
package dedupe

import (
	"sync"
)

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool

	// Seen reports whether key was recorded, without recording it.
	Seen(key string) bool

	// Reset forgets every key.
	Reset()

	// Size returns the number of recorded keys.
	Size() int
}

// inMemoryDeduper implements Deduper with a map. Keys are never evicted:
// an evicted marker would let its key fire twice.
type inMemoryDeduper struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Seen(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.seen[key]
	return exists
}

func (d *inMemoryDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.seen)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}
