// Package resultcache remembers analysis results by fingerprint.
//
// At most one computation per fingerprint runs at a time: concurrent
// callers for the same fingerprint share the in-flight call. A failed
// computation leaves the stored entry untouched, and Clear discards
// results of computations that were in flight when it was called.
package resultcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a Result. It may be slow and may fail.
type ComputeFunc func(ctx context.Context) (model.Result, error)

// Cache maps fingerprints to results.
type Cache struct {
	mu      sync.Mutex
	entries map[string]model.Result
	gen     uint64
	flight  *singleflight.Group
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]model.Result),
		flight:  new(singleflight.Group),
	}
}

// Get returns the stored result for fp.
func (c *Cache) Get(fp string) (model.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[fp]
	return r, ok
}

// Put stores r under fp, replacing any previous entry.
func (c *Cache) Put(fp string, r model.Result) {
	c.mu.Lock()
	c.entries[fp] = r
	n := len(c.entries)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Computations already in flight still return to
// their callers but are not stored.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.gen++
	c.flight = new(singleflight.Group)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(0)
}

type flightResult struct {
	result model.Result
	cached bool
}

// GetOrCompute returns the entry for fp, computing and storing it when absent
// or when force is set. cached reports whether the result came from the
// cache without running fn. A caller arriving while a computation for fp is
// in flight waits for it, forced or not.
//
// fn runs detached from ctx cancellation so a departing caller does not fail
// the others sharing the call; fn should bound itself.
func (c *Cache) GetOrCompute(ctx context.Context, fp string, fn ComputeFunc, force bool) (result model.Result, cached bool, err error) {
	c.mu.Lock()
	if !force {
		if r, ok := c.entries[fp]; ok {
			c.mu.Unlock()
			metrics.RecordCacheHit()
			return r, true, nil
		}
	}
	flight, gen := c.flight, c.gen
	c.mu.Unlock()
	if !force {
		metrics.RecordCacheMiss()
	}

	detached := context.WithoutCancel(ctx)
	ch := flight.DoChan(fp, func() (any, error) {
		if !force {
			if r, ok := c.lookup(fp, gen); ok {
				return flightResult{result: r, cached: true}, nil
			}
		}
		r, err := c.compute(detached, fp, fn)
		if err != nil {
			return nil, err
		}
		c.store(fp, gen, r)
		return flightResult{result: r}, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheJoin()
		}
		if res.Err != nil {
			return model.Result{}, false, res.Err
		}
		fr := res.Val.(flightResult)
		return fr.result, fr.cached, nil
	case <-ctx.Done():
		return model.Result{}, false, ctx.Err()
	}
}

func (c *Cache) lookup(fp string, gen uint64) (model.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return model.Result{}, false
	}
	r, ok := c.entries[fp]
	return r, ok
}

// store writes r unless the cache was cleared since gen.
func (c *Cache) store(fp string, gen uint64, r model.Result) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.entries[fp] = r
	n := len(c.entries)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

func (c *Cache) compute(ctx context.Context, fp string, fn ComputeFunc) (r model.Result, err error) {
	metrics.RecordCacheCompute()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		metrics.RecordComputeLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordCacheComputeError()
			err = &ComputeError{Fingerprint: fp, Err: err}
		}
	}()
	return fn(ctx)
}
