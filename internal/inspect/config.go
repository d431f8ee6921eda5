// Package inspect implements the offline payload inspector behind
// cmd/inspect.
package inspect

import (
	"time"

	"github.com/okian/paddock/pkg/logger"
)

// Config holds configuration for one inspection.
type Config struct {
	File         string         // Payload file, "-" for stdin
	AnalysisFile string         // Optional analysis text to decode
	Now          time.Time      // Reference time for countdowns
	Location     *time.Location // Zone for start times without an offset
	JSON         bool           // Emit the report as JSON
	MaxAttempts  int            // Truncation repair bound
	BaseURL      string         // When set, also upload the payload to this server
	Timeout      time.Duration  // HTTP request timeout
	Logger       logger.Logger  // Defaults to the global logger
}

func (c *Config) log() logger.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Get().Named("inspect")
}
