package scheduler

import (
	"fmt"
	"time"
)

// Phase is the countdown state of an event.
type Phase string

// Countdown phases.
const (
	PhaseUnknown    Phase = "unknown"
	PhaseRemaining  Phase = "remaining"
	PhaseInProgress Phase = "in_progress"
)

// Countdown is the whole-second distance between now and an event start.
// For PhaseRemaining it is the time left, for PhaseInProgress the time
// elapsed since the start.
type Countdown struct {
	Phase   Phase `json:"phase"`
	Hours   int   `json:"hours"`
	Minutes int   `json:"minutes"`
	Seconds int   `json:"seconds"`
}

// CountdownTo computes the countdown to start. ok false yields PhaseUnknown.
func CountdownTo(start time.Time, ok bool, now time.Time) Countdown {
	if !ok {
		return Countdown{Phase: PhaseUnknown}
	}
	d := start.Sub(now)
	phase := PhaseRemaining
	if d <= 0 {
		phase = PhaseInProgress
		d = -d
	}
	total := int(d / time.Second)
	return Countdown{
		Phase:   phase,
		Hours:   total / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

func (c Countdown) String() string {
	switch c.Phase {
	case PhaseRemaining:
		return fmt.Sprintf("%02d:%02d:%02d remaining", c.Hours, c.Minutes, c.Seconds)
	case PhaseInProgress:
		return fmt.Sprintf("in progress +%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	default:
		return string(PhaseUnknown)
	}
}
