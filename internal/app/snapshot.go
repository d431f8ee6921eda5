package service

import (
	"time"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/scheduler"
)

// Snapshot is a consistent view of the session at one instant.
type Snapshot struct {
	State    scheduler.State `json:"state"`
	SetID    string          `json:"eventSetId,omitempty"`
	Source   string          `json:"source,omitempty"`
	LoadedAt *time.Time      `json:"loadedAt,omitempty"`
	Strategy string          `json:"recoveryStrategy,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Events   []model.Event   `json:"events"`

	Index       int                 `json:"index"`
	Event       *model.Event        `json:"event,omitempty"`
	Venue       string              `json:"venue,omitempty"`
	Bias        model.Bias          `json:"bias,omitempty"`
	Override    model.Override      `json:"override"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	Countdown   scheduler.Countdown `json:"countdown"`

	// Result is nil while the current fingerprint has no committed result.
	Result  *model.Result `json:"result,omitempty"`
	Pending bool          `json:"pending"`
	Error   string        `json:"error,omitempty"`
}

// snapshotLocked copies the session state. Callers hold s.mu.
func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     s.sched.State(),
		Events:    []model.Event{},
		Index:     s.sched.Current(),
		Bias:      s.bias,
		Override:  s.override,
		Countdown: s.sched.Countdown(),
		Pending:   s.pending,
		Error:     s.lastErr,
	}
	if s.set == nil {
		return snap
	}

	loaded := s.set.LoadedAt
	snap.SetID = s.set.ID
	snap.Source = s.set.Source
	snap.LoadedAt = &loaded
	snap.Strategy = s.strategy
	snap.Warnings = append([]string(nil), s.warnings...)
	snap.Events = append(snap.Events, s.set.Events...)

	if e, ok := s.sched.CurrentEvent(); ok {
		snap.Event = &e
		snap.Venue = model.CleanLocation(e.Conditions.Location)
		snap.Fingerprint = s.viewFP
	}
	if s.view != nil {
		r := *s.view
		snap.Result = &r
	}
	return snap
}
