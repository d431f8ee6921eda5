package service

import (
	"time"

	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/recovery"
	"github.com/okian/paddock/internal/domain/scheduler"
	"github.com/okian/paddock/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the analysis job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalyzer sets the per-event compute collaborator.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithWeather enables live weather enrichment for events analyzed without a
// weather override.
func WithWeather(w WeatherLookup) Option {
	return func(s *Service) {
		s.weather = w
	}
}

// WithComputeTimeout bounds one analysis.
func WithComputeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.computeTimeout = d
		}
	}
}

// WithLocation sets the zone used for start times written without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now for Load and Select.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedulerOptions configures the session scheduler.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(s *Service) {
		s.schedulerOpts = append(s.schedulerOpts, opts...)
	}
}

// WithRecoveryOptions configures payload recovery.
func WithRecoveryOptions(opts ...recovery.Option) Option {
	return func(s *Service) {
		s.recoveryOpts = append(s.recoveryOpts, opts...)
	}
}

// WithAutoAnalyze toggles background analysis of the current event when it
// changes. It only takes effect once the service is started.
func WithAutoAnalyze(enabled bool) Option {
	return func(s *Service) {
		s.autoAnalyze = enabled
	}
}
