package dedupe_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/paddock/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacityHint(8))

		Convey("When created", func() {
			Convey("Then it is empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
				So(d.Seen("서울-1"), ShouldBeFalse)
			})
		})

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord("서울-1")
			second := d.SeenAndRecord("서울-1")

			Convey("Then only the first call records it", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Seen("서울-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the deduper is reset", func() {
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(fmt.Sprintf("부산-%d", i))
			}
			d.Reset()

			Convey("Then every key is forgotten", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord("부산-0"), ShouldBeFalse)
			})
		})

		Convey("When many keys are recorded", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(fmt.Sprintf("key-%d", i)), ShouldBeFalse)
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, n)
				So(d.Seen("key-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given goroutines racing on the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const numGoroutines = 32

		var wg sync.WaitGroup
		var winners atomic.Int32
		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord("제주-3") {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one records it", func() {
			So(winners.Load(), ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
