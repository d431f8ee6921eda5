package resultcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/resultcache"
	. "github.com/smartystreets/goconvey/convey"
)

func counting(summary string, calls *atomic.Int32) resultcache.ComputeFunc {
	return func(context.Context) (model.Result, error) {
		calls.Add(1)
		return model.Result{Summary: summary}, nil
	}
}

func TestGetOrCompute(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		c := resultcache.New()
		ctx := context.Background()
		var calls atomic.Int32

		Convey("When the same fingerprint is requested twice", func() {
			r1, cached1, err1 := c.GetOrCompute(ctx, "A-1-none", counting("first", &calls), false)
			r2, cached2, err2 := c.GetOrCompute(ctx, "A-1-none", counting("second", &calls), false)

			Convey("Then compute runs once and the second call is served from cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(calls.Load(), ShouldEqual, 1)
				So(cached1, ShouldBeFalse)
				So(cached2, ShouldBeTrue)
				So(r1.Summary, ShouldEqual, "first")
				So(r2.Summary, ShouldEqual, "first")
			})
		})

		Convey("When a call is forced", func() {
			_, _, _ = c.GetOrCompute(ctx, "A-1-none", counting("first", &calls), false)
			r, cached, err := c.GetOrCompute(ctx, "A-1-none", counting("second", &calls), true)

			Convey("Then compute runs again and replaces the entry", func() {
				So(err, ShouldBeNil)
				So(cached, ShouldBeFalse)
				So(calls.Load(), ShouldEqual, 2)
				So(r.Summary, ShouldEqual, "second")
				got, ok := c.Get("A-1-none")
				So(ok, ShouldBeTrue)
				So(got.Summary, ShouldEqual, "second")
			})
		})

		Convey("When compute fails", func() {
			c.Put("A-1-none", model.Result{Summary: "kept"})
			boom := errors.New("upstream timeout")
			_, _, err := c.GetOrCompute(ctx, "A-1-none", func(context.Context) (model.Result, error) {
				return model.Result{Summary: "partial"}, boom
			}, true)

			Convey("Then a ComputeError is returned and the entry is unchanged", func() {
				var cerr *resultcache.ComputeError
				So(errors.As(err, &cerr), ShouldBeTrue)
				So(cerr.Fingerprint, ShouldEqual, "A-1-none")
				So(errors.Is(err, resultcache.ErrCompute), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				got, _ := c.Get("A-1-none")
				So(got.Summary, ShouldEqual, "kept")
			})
		})

		Convey("When compute fails on an absent entry", func() {
			_, _, err := c.GetOrCompute(ctx, "B-2-none", func(context.Context) (model.Result, error) {
				return model.Result{}, errors.New("nope")
			}, false)

			Convey("Then nothing is stored", func() {
				So(err, ShouldNotBeNil)
				_, ok := c.Get("B-2-none")
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When compute panics", func() {
			_, _, err := c.GetOrCompute(ctx, "B-2-none", func(context.Context) (model.Result, error) {
				panic("analyzer bug")
			}, false)

			Convey("Then it surfaces as a ComputeError", func() {
				So(errors.Is(err, resultcache.ErrCompute), ShouldBeTrue)
			})
		})

		Convey("When the cache is cleared between uploads", func() {
			_, _, _ = c.GetOrCompute(ctx, "A-1-none", counting("upload one", &calls), false)
			c.Clear()
			r, cached, err := c.GetOrCompute(ctx, "A-1-none", counting("upload two", &calls), false)

			Convey("Then the reused fingerprint does not return stale data", func() {
				So(err, ShouldBeNil)
				So(cached, ShouldBeFalse)
				So(r.Summary, ShouldEqual, "upload two")
				So(calls.Load(), ShouldEqual, 2)
			})
		})
	})
}

func TestGetOrComputeConcurrency(t *testing.T) {
	Convey("Given callers racing on one fingerprint", t, func() {
		c := resultcache.New()
		ctx := context.Background()
		release := make(chan struct{})
		var calls atomic.Int32
		slow := func(context.Context) (model.Result, error) {
			calls.Add(1)
			<-release
			return model.Result{Summary: "shared"}, nil
		}

		const n = 8
		var wg sync.WaitGroup
		results := make([]model.Result, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _, _ = c.GetOrCompute(ctx, "A-1-none", slow, i%2 == 0)
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("Then only one computation ran and everyone got its result", func() {
			So(calls.Load(), ShouldEqual, 1)
			for _, r := range results {
				So(r.Summary, ShouldEqual, "shared")
			}
		})
	})

	Convey("Given a computation in flight when the cache is cleared", t, func() {
		c := resultcache.New()
		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan model.Result, 1)
		go func() {
			r, _, _ := c.GetOrCompute(context.Background(), "A-1-none", func(context.Context) (model.Result, error) {
				close(started)
				<-release
				return model.Result{Summary: "stale"}, nil
			}, false)
			done <- r
		}()
		<-started
		c.Clear()
		close(release)
		r := <-done

		Convey("Then the caller gets the result but it is not stored", func() {
			So(r.Summary, ShouldEqual, "stale")
			_, ok := c.Get("A-1-none")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a waiter whose context is cancelled", t, func() {
		c := resultcache.New()
		release := make(chan struct{})
		defer close(release)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := c.GetOrCompute(ctx, "A-1-none", func(context.Context) (model.Result, error) {
			<-release
			return model.Result{}, nil
		}, false)

		Convey("Then it returns the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
