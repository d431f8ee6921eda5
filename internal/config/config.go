// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are stored as integer fields with a unit suffix and exposed
//   as time.Duration through accessor methods.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps the size of an uploaded payload.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// TickIntervalMS is the scheduler evaluation cadence.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// TriggerLeadSeconds is how long before start an event becomes current.
	TriggerLeadSeconds int `koanf:"trigger_lead_seconds"`

	// TriggerToleranceMS is the half-width of the trigger window.
	TriggerToleranceMS int `koanf:"trigger_tolerance_ms"`

	// GraceWindowSeconds keeps a just-started event eligible as the initial
	// current event on load.
	GraceWindowSeconds int `koanf:"grace_window_seconds"`

	// CatchUp fires missed trigger windows retroactively.
	CatchUp bool `koanf:"catch_up"`

	// MaxRepairAttempts bounds the backward truncation repair.
	MaxRepairAttempts int `koanf:"max_repair_attempts"`

	// ExcerptLength is the number of runes kept in recovery diagnostics.
	ExcerptLength int `koanf:"excerpt_length"`

	// ComputeTimeoutMS bounds a single per-event analysis.
	ComputeTimeoutMS int `koanf:"compute_timeout_ms"`

	// QueueSize bounds the analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// WeatherEnabled toggles the weather enrichment lookup.
	WeatherEnabled bool `koanf:"weather_enabled"`

	// WeatherURL is the forecast endpoint queried for current conditions.
	WeatherURL string `koanf:"weather_url"`

	// WeatherTimeoutMS bounds one weather lookup.
	WeatherTimeoutMS int `koanf:"weather_timeout_ms"`

	// Timezone is used to interpret start timestamps written without an
	// offset. "Local" uses the host zone.
	Timezone string `koanf:"timezone"`

	// AnalysisLatencyMinMS and AnalysisLatencyMaxMS bound the simulated
	// latency of the built-in heuristic analyzer.
	AnalysisLatencyMinMS int `koanf:"analysis_latency_min_ms"`
	AnalysisLatencyMaxMS int `koanf:"analysis_latency_max_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		MaxBodyBytes:         4 << 20,
		TickIntervalMS:       1000,
		TriggerLeadSeconds:   15 * 60,
		TriggerToleranceMS:   2000,
		GraceWindowSeconds:   10 * 60,
		CatchUp:              true,
		MaxRepairAttempts:    50,
		ExcerptLength:        120,
		ComputeTimeoutMS:     120_000,
		QueueSize:            64,
		WorkerCount:          2,
		WeatherEnabled:       true,
		WeatherURL:           "https://api.open-meteo.com/v1/forecast",
		WeatherTimeoutMS:     5000,
		Timezone:             "Local",
		AnalysisLatencyMinMS: 50,
		AnalysisLatencyMaxMS: 150,
	}
}

// TickInterval returns the scheduler cadence.
func (c *Config) TickInterval() time.Duration { return ms(c.TickIntervalMS) }

// TriggerLead returns the auto-switch lead time.
func (c *Config) TriggerLead() time.Duration {
	return time.Duration(c.TriggerLeadSeconds) * time.Second
}

// TriggerTolerance returns the half-width of the trigger window.
func (c *Config) TriggerTolerance() time.Duration { return ms(c.TriggerToleranceMS) }

// GraceWindow returns the trailing grace window used on load.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.GraceWindowSeconds) * time.Second
}

// ComputeTimeout returns the per-analysis timeout.
func (c *Config) ComputeTimeout() time.Duration { return ms(c.ComputeTimeoutMS) }

// WeatherTimeout returns the weather lookup timeout.
func (c *Config) WeatherTimeout() time.Duration { return ms(c.WeatherTimeoutMS) }

// AnalysisLatency returns the simulated analyzer latency range.
func (c *Config) AnalysisLatency() (time.Duration, time.Duration) {
	return ms(c.AnalysisLatencyMinMS), ms(c.AnalysisLatencyMaxMS)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w %q: %w", ErrInvalidConfig, ErrUnknownTimezone, name, err)
	}
	return loc, nil
}

// Validate rejects settings that would otherwise surface as runtime faults.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.TriggerLeadSeconds <= 0:
		return fmt.Errorf("%w: trigger_lead_seconds must be positive", ErrInvalidConfig)
	case c.TriggerToleranceMS < 0:
		return fmt.Errorf("%w: trigger_tolerance_ms must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
