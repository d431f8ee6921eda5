// Package model contains domain models passed between layers.
package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Unknown is the sentinel stored in free-text fields the upstream left empty.
const Unknown = "unknown"

// Participant is one entrant of an Event. Its gate is its position in
// Event.Participants plus one.
type Participant struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Jockey        string  `json:"jockey"`
	Age           int     `json:"age"`
	Weight        float64 `json:"weight"`
	RecentHistory string  `json:"recentHistory"`
	Notes         string  `json:"notes"`
}

// Conditions describes where and when an Event runs.
type Conditions struct {
	RaceNumber     int    `json:"raceNumber"`
	Distance       int    `json:"distance"`
	TrackCondition string `json:"trackCondition"`
	Weather        string `json:"weather"`
	Location       string `json:"location"`
	// RaceTime is the upstream start timestamp kept verbatim.
	RaceTime string `json:"raceTime,omitempty"`
}

// Event is one scheduled race with an ordered participant list.
type Event struct {
	Conditions   Conditions    `json:"conditions"`
	Participants []Participant `json:"participants"`

	// StartAt is the parsed RaceTime, nil when missing or unparseable.
	StartAt *time.Time `json:"startAt,omitempty"`
}

// StartTime returns the parsed start and whether one is known.
func (e Event) StartTime() (time.Time, bool) {
	if e.StartAt == nil {
		return time.Time{}, false
	}
	return *e.StartAt, true
}

// Key identifies an Event within one EventSet: location and sequence number.
func (e Event) Key() string {
	return strings.TrimSpace(e.Conditions.Location) + "-" + strconv.Itoa(e.Conditions.RaceNumber)
}

// Gate returns the 1-based gate of the participant at position i.
func Gate(i int) int { return i + 1 }

// EventSet is the ordered batch of Events produced from one upload.
type EventSet struct {
	ID       string
	Source   string
	LoadedAt time.Time
	Events   []Event
}

// Len returns the number of events.
func (s *EventSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Events)
}

// Layouts accepted for start timestamps, tried in order. Layouts without an
// offset are interpreted in the caller's location.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseStart parses an upstream start timestamp.
func ParseStart(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var venueSuffix = regexp.MustCompile(`(?i)경마공원|LetsRun|Park`)

// CleanLocation strips venue decorations for display.
func CleanLocation(loc string) string {
	return strings.TrimSpace(venueSuffix.ReplaceAllString(loc, ""))
}
