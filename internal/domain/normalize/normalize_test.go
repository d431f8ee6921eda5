package normalize_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/normalize"
	"github.com/okian/paddock/internal/domain/recovery"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

var fixed = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.WithClock(func() time.Time { return fixed }))
}

func TestNormalizeShapes(t *testing.T) {
	Convey("Given a normalizer", t, func() {
		n := newNormalizer()

		Convey("When the payload is an array", func() {
			events, _, err := n.Normalize(gjson.Parse(`[{"conditions":{"raceNumber":2}},{"conditions":{"raceNumber":5}}]`))

			Convey("Then every record becomes an event in input order", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].Conditions.RaceNumber, ShouldEqual, 2)
				So(events[1].Conditions.RaceNumber, ShouldEqual, 5)
			})
		})

		Convey("When the payload is a single record object", func() {
			events, _, err := n.Normalize(gjson.Parse(`{"conditions":{"raceNumber":3},"horses":[{"name":"X"}]}`))

			Convey("Then it is treated as a one element array", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].Participants[0].Name, ShouldEqual, "X")
			})
		})

		Convey("When the records are wrapped under an unknown key", func() {
			events, _, err := n.Normalize(gjson.Parse(`{"meta":{"v":1},"races":[{"conditions":{"raceNumber":1}}]}`))

			Convey("Then the single array property is unwrapped", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
			})
		})

		Convey("When the object holds two arrays", func() {
			_, _, err := n.Normalize(gjson.Parse(`{"a":[],"b":[]}`))

			Convey("Then it is a shape error", func() {
				var serr *normalize.ShapeError
				So(errors.As(err, &serr), ShouldBeTrue)
				So(errors.Is(err, normalize.ErrShape), ShouldBeTrue)
			})
		})

		Convey("When the payload is a scalar", func() {
			_, _, err := n.Normalize(gjson.Parse(`"just text"`))

			Convey("Then it is a shape error naming the kind", func() {
				var serr *normalize.ShapeError
				So(errors.As(err, &serr), ShouldBeTrue)
				So(serr.Kind, ShouldEqual, "string")
			})
		})

		Convey("When an array element is not an object", func() {
			events, warnings, err := n.Normalize(gjson.Parse(`[42,{"conditions":{"location":"A"}}]`))

			Convey("Then it is skipped with a warning and positions are kept", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].Conditions.RaceNumber, ShouldEqual, 2)
				So(warnings[0].Field, ShouldEqual, "record")
			})
		})
	})
}

func TestNormalizeFields(t *testing.T) {
	Convey("Given loosely typed records", t, func() {
		n := newNormalizer()

		Convey("When the sequence number is missing or unusable", func() {
			events, warnings, err := n.Normalize(gjson.Parse(`[{"conditions":{}},{"conditions":{"raceNumber":"abc"}},{"conditions":{"raceNumber":"7R"}}]`))

			Convey("Then the 1-based position is used", func() {
				So(err, ShouldBeNil)
				So(events[0].Conditions.RaceNumber, ShouldEqual, 1)
				So(events[1].Conditions.RaceNumber, ShouldEqual, 2)
				So(events[2].Conditions.RaceNumber, ShouldEqual, 7)
				So(len(warnings), ShouldEqual, 1)
				So(warnings[0].Field, ShouldEqual, "raceNumber")
				So(warnings[0].Record, ShouldEqual, 1)
			})
		})

		Convey("When numeric fields carry units", func() {
			events, _, err := n.Normalize(gjson.Parse(`[{"conditions":{"distance":"1,400m"},"horses":[{"age":"4세","weight":"480.5kg"},{"age":5,"weight":510}]}]`))

			Convey("Then the digits are kept", func() {
				So(err, ShouldBeNil)
				So(events[0].Conditions.Distance, ShouldEqual, 1400)
				So(events[0].Participants[0].Age, ShouldEqual, 4)
				So(events[0].Participants[0].Weight, ShouldEqual, 480.5)
				So(events[0].Participants[1].Age, ShouldEqual, 5)
				So(events[0].Participants[1].Weight, ShouldEqual, 510)
			})
		})

		Convey("When the same values arrive as numbers and as strings", func() {
			events, warnings, err := n.Normalize(gjson.Parse(`[` +
				`{"conditions":{"distance":1200.5},"horses":[{"age":-4,"weight":-480.5}]},` +
				`{"conditions":{"distance":"1200.5"},"horses":[{"age":"-4","weight":"-480.5"}]}]`))

			Convey("Then both are stripped to their digits alike", func() {
				So(err, ShouldBeNil)
				So(warnings, ShouldBeEmpty)
				for _, e := range events {
					So(e.Conditions.Distance, ShouldEqual, 12005)
					So(e.Participants[0].Age, ShouldEqual, 4)
					So(e.Participants[0].Weight, ShouldEqual, 480.5)
				}
			})
		})

		Convey("When numeric fields are garbage", func() {
			events, warnings, err := n.Normalize(gjson.Parse(`[{"conditions":{"distance":"long"},"horses":[{"age":"old","weight":"4.8.0"}]}]`))

			Convey("Then they default to zero with warnings", func() {
				So(err, ShouldBeNil)
				So(events[0].Conditions.Distance, ShouldEqual, 0)
				So(events[0].Participants[0].Age, ShouldEqual, 0)
				So(events[0].Participants[0].Weight, ShouldEqual, 0)
				So(len(warnings), ShouldEqual, 3)
				So(warnings[1].Participant, ShouldEqual, 0)
			})
		})

		Convey("When free text is absent", func() {
			events, _, _ := n.Normalize(gjson.Parse(`[{"conditions":{"weather":null},"horses":[{}]}]`))

			Convey("Then the unknown sentinel is stored", func() {
				c := events[0].Conditions
				So(c.Location, ShouldEqual, model.Unknown)
				So(c.Weather, ShouldEqual, model.Unknown)
				So(c.TrackCondition, ShouldEqual, model.Unknown)
				p := events[0].Participants[0]
				So(p.Name, ShouldEqual, model.Unknown)
				So(p.Jockey, ShouldEqual, model.Unknown)
				So(p.RecentHistory, ShouldEqual, model.Unknown)
				So(p.Notes, ShouldEqual, model.Unknown)
			})
		})

		Convey("When labels arrive decomposed", func() {
			raw, _ := json.Marshal(map[string]any{"conditions": map[string]any{"location": norm.NFD.String("서울")}})
			events, _, _ := n.Normalize(gjson.Parse("[" + string(raw) + "]"))

			Convey("Then they are composed", func() {
				So(events[0].Conditions.Location, ShouldEqual, "서울")
			})
		})

		Convey("When a start timestamp is given", func() {
			events, _, _ := n.Normalize(gjson.Parse(`[{"conditions":{"raceTime":"2026-10-14 11:30"}}]`))

			Convey("Then it is kept verbatim and not parsed", func() {
				So(events[0].Conditions.RaceTime, ShouldEqual, "2026-10-14 11:30")
				So(events[0].StartAt, ShouldBeNil)
			})
		})

		Convey("When participants are listed", func() {
			events, _, _ := n.Normalize(gjson.Parse(`[{"conditions":{"raceNumber":4},"horses":[{"name":"A"},{"name":"B"},{"name":"C"}]}]`))

			Convey("Then ids are derived from sequence, gate and clock", func() {
				ps := events[0].Participants
				So(ps[0].ID, ShouldEqual, "p-4-1-1791968400000000000")
				So(ps[1].ID, ShouldNotEqual, ps[0].ID)
				So([]string{ps[0].Name, ps[1].Name, ps[2].Name}, ShouldResemble, []string{"A", "B", "C"})
			})
		})

		Convey("When conditions are written flat on the record", func() {
			events, _, _ := n.Normalize(gjson.Parse(`[{"raceNumber":9,"location":"부산","entries":[{"name":"Z"}]}]`))

			Convey("Then they are still read", func() {
				So(events[0].Conditions.RaceNumber, ShouldEqual, 9)
				So(events[0].Conditions.Location, ShouldEqual, "부산")
				So(events[0].Participants[0].Name, ShouldEqual, "Z")
			})
		})
	})
}

func TestNormalizePipeline(t *testing.T) {
	Convey("Given the fenced truncated payload from an upload", t, func() {
		text := "```json\n[{\"conditions\":{\"raceNumber\":1,\"location\":\"A\",\"distance\":\"1200m\"},\"horses\":[{\"name\":\"X\",\"age\":\"4세\",\"weight\":\"480kg\"}]}"

		out, err := recovery.New().Recover(text)
		So(err, ShouldBeNil)
		events, _, err := newNormalizer().Normalize(out.Value)

		Convey("Then one event with one parsed participant is produced", func() {
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 1)
			So(events[0].Conditions.Distance, ShouldEqual, 1200)
			So(len(events[0].Participants), ShouldEqual, 1)
			So(events[0].Participants[0].Age, ShouldEqual, 4)
			So(events[0].Participants[0].Weight, ShouldEqual, 480)
		})
	})

	Convey("Given already normalized events", t, func() {
		n := newNormalizer()
		first, _, err := n.Normalize(gjson.Parse(`[
			{"conditions":{"raceNumber":1,"location":"서울","distance":"1200m","raceTime":"2026-10-14 11:00"},"horses":[{"name":"A","age":"3","weight":"455"},{"name":"B"}]},
			{"conditions":{"raceNumber":2,"location":"부산","distance":1800},"horses":[{"name":"C"}]}
		]`))
		So(err, ShouldBeNil)

		raw, err := json.Marshal(first)
		So(err, ShouldBeNil)
		second, _, err := n.Normalize(gjson.ParseBytes(raw))

		Convey("Then normalizing their raw form again is a no-op", func() {
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})
	})
}
