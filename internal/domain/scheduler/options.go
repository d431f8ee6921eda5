package scheduler

import "time"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLead sets how long before its start an event becomes current.
func WithLead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lead = d
		}
	}
}

// WithTolerance sets the half-width of the trigger window.
func WithTolerance(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.tolerance = d
		}
	}
}

// WithGrace keeps events that started less than d ago eligible as the
// initial current event.
func WithGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithCatchUp fires trigger windows missed while ticks were not delivered,
// as long as the event has not started.
func WithCatchUp(enabled bool) Option {
	return func(s *Scheduler) {
		s.catchUp = enabled
	}
}
