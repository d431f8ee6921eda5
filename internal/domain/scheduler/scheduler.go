// Package scheduler owns the current event of a session and advances it as
// start times approach.
//
// Each event triggers an automatic switch at most once per loaded set. The
// check is level triggered: Tick may run any number of times per second.
// A Scheduler is not safe for concurrent use; the session serializes calls.
package scheduler

import (
	"strconv"
	"time"

	"github.com/okian/paddock/internal/domain/dedupe"
	"github.com/okian/paddock/internal/domain/model"
)

// State is the scheduler lifecycle state.
type State string

// Scheduler states.
const (
	StateIdle    State = "idle"
	StateViewing State = "viewing"
)

// SwitchKind tells why Tick changed the current event.
type SwitchKind string

// Switch kinds.
const (
	SwitchWindow  SwitchKind = "window"
	SwitchCatchUp SwitchKind = "catch_up"
)

const (
	defaultLead      = 15 * time.Minute
	defaultTolerance = 2 * time.Second
	defaultGrace     = 10 * time.Minute
)

// TickResult describes one evaluation.
type TickResult struct {
	Switched  bool
	From      int
	To        int
	Kind      SwitchKind
	Countdown Countdown
}

// Scheduler tracks the current event and its countdown.
type Scheduler struct {
	lead      time.Duration
	tolerance time.Duration
	grace     time.Duration
	catchUp   bool

	state     State
	events    []model.Event
	current   int
	fired     dedupe.Deduper
	countdown Countdown
}

// New creates an idle Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		lead:      defaultLead,
		tolerance: defaultTolerance,
		grace:     defaultGrace,
		catchUp:   true,
		state:     StateIdle,
		fired:     dedupe.NewInMemoryDeduper(),
		countdown: Countdown{Phase: PhaseUnknown},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the event set and returns the initial current index: the
// first event starting at or after now minus the grace window, else 0.
// Trigger windows that already closed are marked as fired.
func (s *Scheduler) Load(events []model.Event, now time.Time) int {
	s.events = append([]model.Event(nil), events...)
	s.state = StateViewing
	s.fired.Reset()
	s.current = 0

	found := false
	for i, e := range s.events {
		start, ok := e.StartTime()
		if !ok {
			continue
		}
		if !found && !start.Before(now.Add(-s.grace)) {
			s.current = i
			found = true
		}
		if start.Sub(now) < s.lead-s.tolerance {
			s.fired.SeenAndRecord(markerKey(i, e))
		}
	}
	s.refresh(now)
	return s.current
}

// Select makes event i current.
func (s *Scheduler) Select(i int, now time.Time) error {
	if s.state != StateViewing {
		return ErrNotViewing
	}
	if i < 0 || i >= len(s.events) {
		return ErrIndexOutOfRange
	}
	s.current = i
	s.refresh(now)
	return nil
}

// Tick evaluates trigger windows at now and switches to at most one event,
// the earliest starting one that qualifies.
func (s *Scheduler) Tick(now time.Time) TickResult {
	if s.state != StateViewing {
		return TickResult{From: -1, To: -1, Countdown: s.countdown}
	}

	best, kind := -1, SwitchKind("")
	var bestStart time.Time
	for i, e := range s.events {
		start, ok := e.StartTime()
		if !ok {
			continue
		}
		until := start.Sub(now)
		var k SwitchKind
		switch {
		case absDuration(until-s.lead) <= s.tolerance:
			k = SwitchWindow
		case s.catchUp && until > 0 && until < s.lead-s.tolerance:
			k = SwitchCatchUp
		default:
			continue
		}
		key := markerKey(i, e)
		if i == s.current {
			// Already showing it; the trigger has nothing left to do.
			s.fired.SeenAndRecord(key)
			continue
		}
		if s.fired.Seen(key) {
			continue
		}
		if best < 0 || start.Before(bestStart) {
			best, kind, bestStart = i, k, start
		}
	}

	res := TickResult{From: s.current, To: s.current}
	if best >= 0 {
		s.fired.SeenAndRecord(markerKey(best, s.events[best]))
		s.current = best
		res.Switched, res.To, res.Kind = true, best, kind
	}
	s.refresh(now)
	res.Countdown = s.countdown
	return res
}

// State returns the lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Current returns the current index, or -1 while idle.
func (s *Scheduler) Current() int {
	if s.state != StateViewing {
		return -1
	}
	return s.current
}

// CurrentEvent returns the current event.
func (s *Scheduler) CurrentEvent() (model.Event, bool) {
	if s.state != StateViewing || len(s.events) == 0 {
		return model.Event{}, false
	}
	return s.events[s.current], true
}

// Countdown returns the countdown computed by the last Load, Select or Tick.
func (s *Scheduler) Countdown() Countdown { return s.countdown }

// Fired reports whether event i already triggered its automatic switch.
func (s *Scheduler) Fired(i int) bool {
	if i < 0 || i >= len(s.events) {
		return false
	}
	return s.fired.Seen(markerKey(i, s.events[i]))
}

// FiredCount returns how many events are marked as already switched to.
func (s *Scheduler) FiredCount() int { return s.fired.Size() }

func (s *Scheduler) refresh(now time.Time) {
	e, ok := s.CurrentEvent()
	if !ok {
		s.countdown = Countdown{Phase: PhaseUnknown}
		return
	}
	start, ok := e.StartTime()
	s.countdown = CountdownTo(start, ok, now)
}

// markerKey includes the index so duplicate location and sequence pairs in
// one upload keep separate markers.
func markerKey(i int, e model.Event) string {
	return strconv.Itoa(i) + "/" + e.Key()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
