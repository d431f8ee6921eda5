// Package normalize converts loosely typed upstream records into events.
//
// Individual fields never fail: numbers are parsed from whatever digits the
// upstream wrote and missing labels become model.Unknown. Only the top-level
// shape can reject a payload.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

var (
	conditionKeys   = []string{"conditions", "raceConditions", "race"}
	participantKeys = []string{"horses", "participants", "entries", "runners"}
)

// Normalizer turns a recovered JSON value into events.
type Normalizer struct {
	now func() time.Time
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts v into events in input order. Warnings describe fields
// that were defaulted.
func (n *Normalizer) Normalize(v gjson.Result) ([]model.Event, []FieldWarning, error) {
	recs, err := Records(v)
	if err != nil {
		return nil, nil, err
	}

	stamp := n.now().UnixNano()
	events := make([]model.Event, 0, len(recs))
	var warnings []FieldWarning
	for i, rec := range recs {
		if !rec.IsObject() {
			warnings = append(warnings, FieldWarning{Record: i, Participant: -1, Field: "record", Value: clip(rec.Raw)})
			continue
		}
		ev, ws := normalizeEvent(i, rec, stamp)
		events = append(events, ev)
		warnings = append(warnings, ws...)
	}
	return events, warnings, nil
}

// Records resolves the accepted top-level shapes into a list of records:
// an array, a single record object, or an object wrapping exactly one array.
func Records(v gjson.Result) ([]gjson.Result, error) {
	switch {
	case !v.Exists():
		return nil, &ShapeError{Kind: "empty"}
	case v.IsArray():
		return v.Array(), nil
	case v.IsObject():
		if first(v, conditionKeys...).Exists() && first(v, participantKeys...).Exists() {
			return []gjson.Result{v}, nil
		}
		var arrays []gjson.Result
		v.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				arrays = append(arrays, value)
			}
			return true
		})
		if len(arrays) == 1 {
			return arrays[0].Array(), nil
		}
		return nil, &ShapeError{Kind: fmt.Sprintf("object with %d array properties", len(arrays))}
	default:
		return nil, &ShapeError{Kind: kind(v)}
	}
}

func normalizeEvent(idx int, rec gjson.Result, stamp int64) (model.Event, []FieldWarning) {
	var ws []FieldWarning
	warn := func(p int, field string, v gjson.Result) {
		ws = append(ws, FieldWarning{Record: idx, Participant: p, Field: field, Value: clip(v.Raw)})
	}

	cond := first(rec, conditionKeys...)
	if !cond.IsObject() {
		cond = rec
	}

	var c model.Conditions
	raw := first(cond, "raceNumber", "race_number", "raceNo", "number")
	if seq, ok := positiveInt(raw); ok {
		c.RaceNumber = seq
	} else {
		c.RaceNumber = idx + 1
		if present(raw) {
			warn(-1, "raceNumber", raw)
		}
	}

	raw = cond.Get("distance")
	c.Distance, _ = digits(raw)
	if present(raw) && c.Distance == 0 {
		warn(-1, "distance", raw)
	}

	c.Location = text(cond.Get("location"))
	c.TrackCondition = text(first(cond, "trackCondition", "track", "surface"))
	c.Weather = text(cond.Get("weather"))
	if rt := first(cond, "raceTime", "startTime", "start"); present(rt) {
		c.RaceTime = rt.String()
	}

	var list []gjson.Result
	if raw = first(rec, participantKeys...); raw.IsArray() {
		list = raw.Array()
	} else if present(raw) {
		warn(-1, "participants", raw)
	}
	ev := model.Event{Conditions: c, Participants: make([]model.Participant, 0, len(list))}
	for pos, p := range list {
		part := model.Participant{
			ID:            fmt.Sprintf("p-%d-%d-%d", c.RaceNumber, model.Gate(pos), stamp),
			Name:          text(first(p, "name", "horseName")),
			Jockey:        text(p.Get("jockey")),
			RecentHistory: text(first(p, "recentHistory", "recent_history", "history")),
			Notes:         text(p.Get("notes")),
		}

		raw = p.Get("age")
		if part.Age, _ = digits(raw); present(raw) && part.Age == 0 {
			warn(pos, "age", raw)
		}
		raw = p.Get("weight")
		if part.Weight, _ = decimal(raw); present(raw) && part.Weight == 0 {
			warn(pos, "weight", raw)
		}
		ev.Participants = append(ev.Participants, part)
	}
	return ev, ws
}

func first(v gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null && strings.TrimSpace(v.String()) != ""
}

func positiveInt(v gjson.Result) (int, bool) {
	if !present(v) {
		return 0, false
	}
	n, ok := digits(v)
	return n, ok && n > 0
}

// numeral renders a string or number value as text, so both JSON types go
// through the same stripping.
func numeral(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// digits parses an integer from the digit characters of v. Signs and
// decimal points are dropped along with every other non-digit.
func digits(v gjson.Result) (int, bool) {
	raw, ok := numeral(v)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// decimal parses a float from the digit and '.' characters of v.
func decimal(v gjson.Result) (float64, bool) {
	raw, ok := numeral(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func text(v gjson.Result) string {
	if !present(v) {
		return model.Unknown
	}
	return norm.NFC.String(strings.TrimSpace(v.String()))
}

func kind(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		return "unknown"
	}
}

func clip(s string) string {
	const limit = 40
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
