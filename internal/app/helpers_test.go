package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/model"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// payload renders one event per start offset at location loc, numbered from 1.
func payload(loc string, offsets ...time.Duration) string {
	recs := make([]string, 0, len(offsets))
	for i, off := range offsets {
		recs = append(recs, fmt.Sprintf(
			`{"conditions":{"raceNumber":%d,"location":%q,"distance":"1200m","weather":"맑음","trackCondition":"건조","raceTime":%q},`+
				`"horses":[{"name":"H%d","age":"4세","weight":"480kg","recentHistory":"1-2-3"}]}`,
			i+1, loc, t0.Add(off).Format(time.RFC3339), i+1))
	}
	return "```json\n[" + strings.Join(recs, ",") + "]\n```"
}

// countingAnalyzer numbers its results and records every request.
type countingAnalyzer struct {
	calls atomic.Int64
	mu    sync.Mutex
	reqs  []analysis.Request
	err   error
}

func (a *countingAnalyzer) Analyze(_ context.Context, req analysis.Request) (model.Result, error) {
	n := a.calls.Add(1)
	a.mu.Lock()
	a.reqs = append(a.reqs, req)
	err := a.err
	a.mu.Unlock()
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Summary: fmt.Sprintf("run %d", n), ConfidenceScore: 50}, nil
}

func (a *countingAnalyzer) last() analysis.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reqs[len(a.reqs)-1]
}

// blockingAnalyzer holds its first call until release is closed.
type blockingAnalyzer struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingAnalyzer() *blockingAnalyzer {
	return &blockingAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
}

func (a *blockingAnalyzer) Analyze(ctx context.Context, req analysis.Request) (model.Result, error) {
	a.once.Do(func() { close(a.entered) })
	select {
	case <-a.release:
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
	return model.Result{Summary: "late " + req.Event.Key()}, nil
}

type fixedWeather string

func (w fixedWeather) Current(context.Context, string) string { return string(w) }

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
