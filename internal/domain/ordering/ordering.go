// Package ordering sorts events into a deterministic total order.
package ordering

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/okian/paddock/internal/domain/model"
)

// Sorter orders events by start time, then sequence number, then location.
// Events without a usable start sort as the zero time.
type Sorter struct {
	loc *time.Location
}

// New creates a Sorter that reads offset-less timestamps in loc.
func New(loc *time.Location) *Sorter {
	if loc == nil {
		loc = time.Local
	}
	return &Sorter{loc: loc}
}

// Resolve attaches parsed start times to copies of events.
func (s *Sorter) Resolve(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		e.StartAt = nil
		if t, ok := model.ParseStart(e.Conditions.RaceTime, s.loc); ok {
			e.StartAt = &t
		}
		out[i] = e
	}
	return out
}

// Sort returns a sorted copy of events with start times resolved.
func (s *Sorter) Sort(events []model.Event) []model.Event {
	out := s.Resolve(events)
	slices.SortStableFunc(out, Compare)
	return out
}

// Compare is the event order.
func Compare(a, b model.Event) int {
	ta, _ := a.StartTime()
	tb, _ := b.StartTime()
	if c := ta.Compare(tb); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Conditions.RaceNumber, b.Conditions.RaceNumber); c != 0 {
		return c
	}
	return strings.Compare(strings.TrimSpace(a.Conditions.Location), strings.TrimSpace(b.Conditions.Location))
}
