// Package analysis defines the per-event compute collaborator and a local
// heuristic implementation of it.
package analysis

import (
	"context"

	"github.com/okian/paddock/internal/domain/model"
)

// Request is one event under the conditions an analysis should assume.
type Request struct {
	Event model.Event
	Bias  model.Bias
	// Weather and Track are the effective conditions after overrides and
	// enrichment.
	Weather string
	Track   string
}

// Analyzer produces a Result for a Request. Implementations may be slow
// and must honor ctx.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (model.Result, error)
}

// Func adapts a function to Analyzer.
type Func func(ctx context.Context, req Request) (model.Result, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, req Request) (model.Result, error) { return f(ctx, req) }
