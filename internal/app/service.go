// Package service provides the session that ties payload recovery, event
// ordering, the result cache and the scheduler together for the HTTP API.
//
// Every reaction (upload, selection, tick, analysis completion) runs under
// one mutex, so the session never shows a result that belongs to another
// event or another upload.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/paddock/internal/adapters/mq/queue"
	workerpool "github.com/okian/paddock/internal/adapters/mq/worker"
	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/normalize"
	"github.com/okian/paddock/internal/domain/ordering"
	"github.com/okian/paddock/internal/domain/recovery"
	"github.com/okian/paddock/internal/domain/resultcache"
	"github.com/okian/paddock/internal/domain/scheduler"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

const (
	defaultQueueSize      = 64
	defaultComputeTimeout = 2 * time.Minute
)

// WeatherLookup describes current conditions at a location. An empty
// answer means unknown.
type WeatherLookup interface {
	Current(ctx context.Context, location string) string
}

// Service is one viewing session.
type Service struct {
	mu sync.Mutex

	// Core components
	recoverer  *recovery.Recoverer
	normalizer *normalize.Normalizer
	sorter     *ordering.Sorter
	cache      *resultcache.Cache
	sched      *scheduler.Scheduler
	analyzer   analysis.Analyzer
	weather    WeatherLookup
	jobs       *eventqueue.InMemoryQueue
	pool       *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	computeTimeout time.Duration
	autoAnalyze    bool
	loc            *time.Location
	now            func() time.Time
	schedulerOpts  []scheduler.Option
	recoveryOpts   []recovery.Option

	// Session state
	set      *model.EventSet
	strategy string
	warnings []string
	bias     model.Bias
	override model.Override
	viewFP   string
	view     *model.Result
	pending  bool
	lastErr  string

	started bool

	logger logger.Logger
}

// New constructs an idle Service. Background analysis needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		computeTimeout: defaultComputeTimeout,
		autoAnalyze:    true,
		loc:            time.Local,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("session")
	}
	if s.analyzer == nil {
		s.analyzer = analysis.NewHeuristic()
	}
	s.recoverer = recovery.New(s.recoveryOpts...)
	s.normalizer = normalize.New()
	s.sorter = ordering.New(s.loc)
	s.cache = resultcache.New()
	s.sched = scheduler.New(s.schedulerOpts...)
	metrics.UpdateCurrentIndex(-1)
	return s
}

// Start launches the analysis workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.jobs = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s, workerpool.WithPoolLogger(s.logger.Named("analysis")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "session service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains the job queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	pool := s.pool
	s.started = false
	s.pending = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping session service...")
	// Workers take s.mu to commit, so the pool is drained without holding it.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.logger.Info(ctx, "session service stopped")
}

// RunTicker calls Tick every interval until ctx is done.
func (s *Service) RunTicker(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// GetStats returns session statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"state":        string(s.sched.State()),
		"currentIndex": s.sched.Current(),
		"cacheEntries": s.cache.Len(),
		"firedMarkers": s.sched.FiredCount(),
		"events":       s.set.Len(),
		"pending":      s.pending,
	}
	if s.set != nil {
		stats["eventSetId"] = s.set.ID
		stats["source"] = s.set.Source
	}
	if s.started {
		queueLen := s.jobs.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
