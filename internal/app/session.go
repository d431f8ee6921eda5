package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/paddock/internal/adapters/mq/queue"
	workerpool "github.com/okian/paddock/internal/adapters/mq/worker"
	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/recovery"
	"github.com/okian/paddock/internal/domain/scheduler"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

// AnalyzeRequest asks for the analysis of the current event. Weather and
// Track replace the session's condition override; empty values clear it.
type AnalyzeRequest struct {
	Force   bool   `json:"force"`
	Weather string `json:"weather,omitempty"`
	Track   string `json:"track,omitempty"`
}

// Load parses raw into a new event set and makes it the session's set.
// A failed load leaves the previous set untouched.
func (s *Service) Load(ctx context.Context, raw, filename string) (Snapshot, error) {
	start := time.Now()

	outcome, err := s.recoverer.Recover(raw)
	if err != nil {
		metrics.RecordPayloadLoad("recovery_error")
		s.logger.Warn(ctx, "payload recovery failed", logger.String("source", filename), logger.Error(err))
		return Snapshot{}, fmt.Errorf("load %q: %w", filename, err)
	}
	metrics.RecordRecovery(outcome.Strategy)
	if outcome.Strategy == recovery.StrategyBackwardRepair {
		metrics.RecordRepairCandidates(outcome.Candidates)
	}

	events, warnings, err := s.normalizer.Normalize(outcome.Value)
	if err != nil {
		metrics.RecordPayloadLoad("shape_error")
		s.logger.Warn(ctx, "payload shape rejected", logger.String("source", filename), logger.Error(err))
		return Snapshot{}, fmt.Errorf("load %q: %w", filename, err)
	}
	if len(events) == 0 {
		metrics.RecordPayloadLoad("empty")
		return Snapshot{}, fmt.Errorf("load %q: %w", filename, ErrEmptyEventSet)
	}
	events = s.sorter.Sort(events)

	notes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		metrics.RecordNormalizeWarning(w.Field)
		notes = append(notes, w.String())
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = &model.EventSet{
		ID:       uuid.NewString(),
		Source:   filename,
		LoadedAt: now,
		Events:   events,
	}
	s.strategy = outcome.Strategy
	s.warnings = notes
	s.cache.Clear()
	idx := s.sched.Load(events, now)
	s.bias = model.BiasNone
	s.override = model.Override{}
	s.viewFP, s.view, s.pending, s.lastErr = "", nil, false, ""
	s.refreshLocked(ctx, false)

	metrics.RecordPayloadLoad("ok")
	metrics.UpdateEventsLoaded(len(events))
	metrics.RecordIngestLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "event set loaded",
		logger.String("id", s.set.ID),
		logger.String("source", filename),
		logger.String("strategy", outcome.Strategy),
		logger.Int("events", len(events)),
		logger.Int("warnings", len(notes)),
		logger.Int("index", idx),
	)
	return s.snapshotLocked(), nil
}

// Snapshot returns the current session view.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Select makes event i current.
func (s *Service) Select(ctx context.Context, i int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set == nil {
		return s.snapshotLocked(), ErrNoEventSet
	}
	prev := s.sched.Current()
	if err := s.sched.Select(i, s.now()); err != nil {
		return s.snapshotLocked(), fmt.Errorf("select %d: %w", i, err)
	}
	if i != prev {
		s.override = model.Override{}
	}
	s.refreshLocked(ctx, false)
	return s.snapshotLocked(), nil
}

// Tick evaluates the automatic switch at now.
func (s *Service) Tick(ctx context.Context, now time.Time) Snapshot {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		metrics.RecordTickLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if s.set == nil {
		return s.snapshotLocked()
	}

	res := s.sched.Tick(now)
	if res.Switched {
		metrics.RecordAutoSwitch(string(res.Kind))
		s.logger.Info(ctx, "auto-switched event",
			logger.Int("from", res.From),
			logger.Int("to", res.To),
			logger.String("kind", string(res.Kind)),
		)
		s.override = model.Override{}
		s.refreshLocked(ctx, false)
	}

	metrics.UpdateCurrentIndex(s.sched.Current())
	if e, ok := s.sched.CurrentEvent(); ok {
		if startAt, ok := e.StartTime(); ok {
			metrics.UpdateSecondsToStart(startAt.Sub(now).Seconds())
		}
	}
	return s.snapshotLocked()
}

// SetBias changes the session track bias and re-analyzes the current event.
func (s *Service) SetBias(ctx context.Context, raw string) (Snapshot, error) {
	b, ok := model.ParseBias(raw)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownBias, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set == nil {
		return s.snapshotLocked(), ErrNoEventSet
	}
	s.bias = b
	s.refreshLocked(ctx, true)
	return s.snapshotLocked(), nil
}

// Analyze computes, or returns the cached, result of the current event and
// commits it to the view.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (model.Result, error) {
	s.mu.Lock()
	if s.set == nil {
		s.mu.Unlock()
		return model.Result{}, ErrNoEventSet
	}
	s.override = model.Override{
		Weather: strings.TrimSpace(req.Weather),
		Track:   strings.TrimSpace(req.Track),
	}
	t, need := s.viewLocked(req.Force)
	if t.fp == "" {
		s.mu.Unlock()
		return model.Result{}, ErrNoEventSet
	}
	if need {
		s.pending = true
	}
	s.mu.Unlock()

	r, _, err := s.cache.GetOrCompute(ctx, t.fp, s.computeFunc(t), req.Force)
	if cerr := s.commit(ctx, t, r, err); cerr != nil {
		return model.Result{}, cerr
	}
	if err != nil {
		return model.Result{}, err
	}
	return r, nil
}

// Attach decodes analysis text produced elsewhere and stores it as the
// result of the current event.
func (s *Service) Attach(ctx context.Context, text string) (model.Result, error) {
	r, err := analysis.DecodeText(s.recoverer, text)
	if err != nil {
		return model.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set == nil || s.viewFP == "" {
		return model.Result{}, ErrNoEventSet
	}
	s.cache.Put(s.viewFP, r)
	s.view, s.pending, s.lastErr = &r, false, ""
	s.logger.Info(ctx, "analysis attached", logger.String("fingerprint", s.viewFP))
	return r, nil
}

// RunJob executes a queued analysis job. It implements the worker runner.
func (s *Service) RunJob(ctx context.Context, j eventqueue.Job) error {
	s.mu.Lock()
	if s.set == nil || s.set.ID != j.SetID {
		s.mu.Unlock()
		metrics.RecordStaleDiscard()
		return fmt.Errorf("job for set %s: %w: %w", j.SetID, ErrStaleEventSet, workerpool.ErrStale)
	}
	t, err := s.taskLocked(j.Index)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if t.fp != j.Fingerprint {
		// The variant changed after the job was queued; the newer job covers it.
		return fmt.Errorf("job for %s superseded by %s: %w", j.Fingerprint, t.fp, workerpool.ErrStale)
	}

	r, _, err := s.cache.GetOrCompute(ctx, t.fp, s.computeFunc(t), j.Force)
	if cerr := s.commit(ctx, t, r, err); cerr != nil {
		return fmt.Errorf("%w: %w", cerr, workerpool.ErrStale)
	}
	return err
}

// task pins what one analysis was started for.
type task struct {
	setID   string
	index   int
	fp      string
	event   model.Event
	variant model.Variant
}

func (s *Service) taskLocked(i int) (task, error) {
	if i < 0 || i >= len(s.set.Events) {
		return task{}, fmt.Errorf("analyze %d: %w", i, scheduler.ErrIndexOutOfRange)
	}
	e := s.set.Events[i]
	v := model.Variant{Bias: s.bias, Override: s.override}
	return task{
		setID:   s.set.ID,
		index:   i,
		fp:      model.Fingerprint(e, v),
		event:   e,
		variant: v,
	}, nil
}

// commit applies a finished computation to the view. A completion from a
// replaced event set is discarded with ErrStaleEventSet.
func (s *Service) commit(ctx context.Context, t task, r model.Result, cerr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set == nil || s.set.ID != t.setID {
		metrics.RecordStaleDiscard()
		s.logger.Debug(ctx, "discarded stale analysis",
			logger.String("set", t.setID),
			logger.String("fingerprint", t.fp),
		)
		return ErrStaleEventSet
	}
	if s.viewFP != t.fp {
		return nil
	}

	s.pending = false
	if cerr != nil {
		if !errors.Is(cerr, context.Canceled) {
			s.lastErr = cerr.Error()
			s.logger.Warn(ctx, "analysis failed",
				logger.String("fingerprint", t.fp),
				logger.Error(cerr),
			)
		}
		return nil
	}
	s.view, s.lastErr = &r, ""
	return nil
}

// refreshLocked re-derives the view after any change to the current event
// or variant and schedules background analysis when the view has no result.
func (s *Service) refreshLocked(ctx context.Context, force bool) {
	t, need := s.viewLocked(force)
	if !need || !s.started || !s.autoAnalyze {
		return
	}

	job := eventqueue.Job{SetID: t.setID, Index: t.index, Fingerprint: t.fp, Force: force}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.lastErr = "analysis not scheduled: " + err.Error()
		s.logger.Warn(ctx, "cannot enqueue analysis", logger.String("fingerprint", t.fp), logger.Error(err))
		return
	}
	s.pending = true
}

// viewLocked points the view at the current fingerprint. The previous view
// is dropped before anything else is shown. need reports that no usable
// result is cached.
func (s *Service) viewLocked(force bool) (t task, need bool) {
	idx := s.sched.Current()
	metrics.UpdateCurrentIndex(idx)
	t, err := s.taskLocked(idx)
	if err != nil {
		s.viewFP, s.view, s.pending = "", nil, false
		return task{}, false
	}
	if t.fp != s.viewFP {
		s.viewFP, s.view, s.pending, s.lastErr = t.fp, nil, false, ""
	}
	if force {
		s.view = nil
		return t, true
	}
	if r, ok := s.cache.Get(t.fp); ok {
		s.view, s.pending = &r, false
		return t, false
	}
	return t, true
}

// computeFunc resolves the effective conditions for t and runs the analyzer.
func (s *Service) computeFunc(t task) func(context.Context) (model.Result, error) {
	return func(ctx context.Context) (model.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, s.computeTimeout)
		defer cancel()

		c := t.event.Conditions
		req := analysis.Request{
			Event:   t.event,
			Bias:    t.variant.Bias,
			Weather: c.Weather,
			Track:   c.TrackCondition,
		}
		if w := t.variant.Override.Weather; w != "" {
			req.Weather = w
		} else if s.weather != nil {
			if live := s.weather.Current(ctx, c.Location); live != "" {
				req.Weather = live
			}
		}
		if tr := t.variant.Override.Track; tr != "" {
			req.Track = tr
		}

		r, err := s.analyzer.Analyze(ctx, req)
		if err != nil {
			return model.Result{}, err
		}
		if r.AppliedWeather == "" {
			r.AppliedWeather = req.Weather
		}
		if r.AppliedTrackCondition == "" {
			r.AppliedTrackCondition = req.Track
		}
		return r, nil
	}
}
