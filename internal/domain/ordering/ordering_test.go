package ordering_test

import (
	"testing"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/ordering"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(loc string, seq int, raceTime string) model.Event {
	return model.Event{Conditions: model.Conditions{Location: loc, RaceNumber: seq, RaceTime: raceTime}}
}

func keys(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Key()
	}
	return out
}

func TestSort(t *testing.T) {
	Convey("Given a sorter in UTC", t, func() {
		s := ordering.New(time.UTC)

		Convey("When events have start times", func() {
			got := s.Sort([]model.Event{
				ev("부산", 1, "2026-10-14 13:00"),
				ev("서울", 5, "2026-10-14T11:00:00Z"),
				ev("제주", 2, "2026-10-14 12:00:00"),
			})

			Convey("Then they are chronological with starts attached", func() {
				So(keys(got), ShouldResemble, []string{"서울-5", "제주-2", "부산-1"})
				start, ok := got[0].StartTime()
				So(ok, ShouldBeTrue)
				So(start.Equal(time.Date(2026, 10, 14, 11, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When start times tie", func() {
			got := s.Sort([]model.Event{
				ev("B", 2, "2026-10-14 11:00"),
				ev("B", 1, "2026-10-14 11:00"),
				ev("A", 1, "2026-10-14 11:00"),
			})

			Convey("Then sequence then location break the tie", func() {
				So(keys(got), ShouldResemble, []string{"A-1", "B-1", "B-2"})
			})
		})

		Convey("When some starts are missing or unparseable", func() {
			got := s.Sort([]model.Event{
				ev("A", 3, "2026-10-14 11:00"),
				ev("A", 2, ""),
				ev("A", 1, "soon"),
			})

			Convey("Then undated events sort first by sequence", func() {
				So(keys(got), ShouldResemble, []string{"A-1", "A-2", "A-3"})
				_, ok := got[0].StartTime()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When sorting an already sorted set", func() {
			in := []model.Event{
				ev("B", 1, "2026-10-14 11:00"),
				ev("A", 1, "2026-10-14 11:00"),
				ev("C", 4, ""),
			}
			once := s.Sort(in)
			twice := s.Sort(once)

			Convey("Then the order is unchanged", func() {
				So(keys(twice), ShouldResemble, keys(once))
				So(twice, ShouldResemble, once)
			})
		})

		Convey("When the input is sorted", func() {
			in := []model.Event{ev("B", 1, ""), ev("A", 1, "")}
			_ = s.Sort(in)

			Convey("Then the input slice is left alone", func() {
				So(keys(in), ShouldResemble, []string{"B-1", "A-1"})
				So(in[0].StartAt, ShouldBeNil)
			})
		})
	})

	Convey("Given a sorter in another zone", t, func() {
		kst := time.FixedZone("KST", 9*3600)
		got := ordering.New(kst).Resolve([]model.Event{ev("A", 1, "2026-10-14 11:00")})

		Convey("Then offset-less times are read in that zone", func() {
			start, _ := got[0].StartTime()
			So(start.Equal(time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})
}
