// Package eval runs many question turns concurrently for offline scoring.
package eval

import (
	"context"
	"sync"

	"github.com/inscope-ai/ragcore/orchestrator"
	"github.com/inscope-ai/ragcore/schema"
)

const defaultWidth = 2

// Harness fans turn requests over a bounded worker pool. Workers share no
// mutable state beyond the cache store, which is concurrency-safe.
type Harness struct {
	Runner *orchestrator.Orchestrator
	Width  int
}

func NewHarness(runner *orchestrator.Orchestrator, width int) *Harness {
	if width <= 0 {
		width = defaultWidth
	}
	return &Harness{Runner: runner, Width: width}
}

// Run executes all requests and returns results in request order.
func (h *Harness) Run(ctx context.Context, requests []schema.TurnRequest) []schema.TurnResult {
	results := make([]schema.TurnResult, len(requests))
	sem := make(chan struct{}, h.Width)
	var wg sync.WaitGroup

	for i, req := range requests {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, req schema.TurnRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = h.Runner.Run(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

// Summary aggregates a result batch.
type Summary struct {
	Turns         int     `json:"turns"`
	MeanQuality   float64 `json:"mean_quality"`
	ReplanTotal   int     `json:"replan_total"`
	EmergencyUsed int     `json:"emergency_used"`
	WithWarnings  int     `json:"with_warnings"`
}

// Summarize computes batch aggregates.
func Summarize(results []schema.TurnResult) Summary {
	s := Summary{Turns: len(results)}
	if len(results) == 0 {
		return s
	}
	var total float64
	for _, r := range results {
		total += r.QualityScore
		s.ReplanTotal += r.ReplanCount
		if r.EmergencyFallbackUsed {
			s.EmergencyUsed++
		}
		if len(r.Warnings) > 0 {
			s.WithWarnings++
		}
	}
	s.MeanQuality = total / float64(len(results))
	return s
}
