package inspect

import (
	"time"

	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/normalize"
	"github.com/okian/paddock/internal/domain/ordering"
	"github.com/okian/paddock/internal/domain/recovery"
	"github.com/okian/paddock/internal/domain/scheduler"
)

// EventLine summarizes one ordered event.
type EventLine struct {
	Index        int                 `json:"index"`
	Fingerprint  string              `json:"fingerprint"`
	Venue        string              `json:"venue"`
	RaceNumber   int                 `json:"raceNumber"`
	Distance     int                 `json:"distance"`
	Start        *time.Time          `json:"start,omitempty"`
	Countdown    scheduler.Countdown `json:"countdown"`
	Participants int                 `json:"participants"`
}

// Report is the outcome of inspecting one payload.
type Report struct {
	Strategy   string        `json:"strategy"`
	Candidates int           `json:"repairCandidates,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Events     []EventLine   `json:"events"`
	Analysis   *model.Result `json:"analysis,omitempty"`
	Uploaded   string        `json:"uploadedEventSetId,omitempty"`
}

func (c *Config) recoverer() *recovery.Recoverer {
	if c.MaxAttempts > 0 {
		return recovery.New(recovery.WithMaxAttempts(c.MaxAttempts))
	}
	return recovery.New()
}

// Build runs recovery, normalization and ordering over raw.
func Build(cfg *Config, raw string) (*Report, error) {
	out, err := cfg.recoverer().Recover(raw)
	if err != nil {
		return nil, err
	}
	events, warnings, err := normalize.New().Normalize(out.Value)
	if err != nil {
		return nil, err
	}
	events = ordering.New(cfg.Location).Sort(events)

	rep := &Report{
		Strategy:   out.Strategy,
		Candidates: out.Candidates,
		Events:     make([]EventLine, 0, len(events)),
	}
	for _, w := range warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}
	for i, e := range events {
		start, ok := e.StartTime()
		rep.Events = append(rep.Events, EventLine{
			Index:        i,
			Fingerprint:  model.Fingerprint(e, model.Variant{}),
			Venue:        model.CleanLocation(e.Conditions.Location),
			RaceNumber:   e.Conditions.RaceNumber,
			Distance:     e.Conditions.Distance,
			Start:        e.StartAt,
			Countdown:    scheduler.CountdownTo(start, ok, cfg.Now),
			Participants: len(e.Participants),
		})
	}
	return rep, nil
}

// DecodeAnalysis parses generated analysis text into a Result.
func DecodeAnalysis(cfg *Config, text string) (*model.Result, error) {
	r, err := analysis.DecodeText(cfg.recoverer(), text)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
