package optimizer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
)

const (
	// DefaultFilterTimeout bounds a single filter evaluation. A timeout is
	// a filter failure, never a run failure.
	DefaultFilterTimeout = 2 * time.Minute
	// DefaultWorkers bounds concurrent evaluations in parallel mode.
	DefaultWorkers = 4
)

// Registry holds the filter bank in a fixed priority order and runs every
// filter against a candidate. There is no short-circuiting: later filters'
// suggestions are wanted even when an earlier filter already failed, so each
// generator round-trip gets the fullest possible feedback.
type Registry struct {
	filters []Filter
	timeout time.Duration
	workers int
	logger  *zap.Logger
}

// RegistryOption adjusts registry behavior.
type RegistryOption func(*Registry)

// WithFilterTimeout overrides the per-filter evaluation timeout.
func WithFilterTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithWorkers overrides the parallel-mode worker bound.
func WithWorkers(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRegistry builds a registry over the given filters. The slice is copied
// and stably sorted by priority, so registration order breaks ties and the
// caller's slice stays untouched.
func NewRegistry(filters []Filter, logger *zap.Logger, opts ...RegistryOption) *Registry {
	sorted := make([]Filter, len(filters))
	copy(sorted, filters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		filters: sorted,
		timeout: DefaultFilterTimeout,
		workers: DefaultWorkers,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of registered filters.
func (r *Registry) Len() int { return len(r.filters) }

// Names returns filter names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.filters))
	for i, f := range r.filters {
		names[i] = f.Name()
	}
	return names
}

// Run evaluates every filter against the candidate and aggregates the
// outcomes. In parallel mode filters run on a bounded worker pool and the
// outcomes are collected by index, so both modes produce identical verdicts;
// only latency differs. The candidate and posting are read-only for the
// duration of the call.
func (r *Registry) Run(ctx context.Context, cand *Candidate, posting *job.Posting, parallel bool) Verdict {
	outcomes := make([]Outcome, len(r.filters))

	if parallel && len(r.filters) > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, r.workers)
		for i, f := range r.filters {
			wg.Add(1)
			go func(i int, f Filter) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				outcomes[i] = r.evaluate(ctx, f, cand, posting)
			}(i, f)
		}
		wg.Wait()
	} else {
		for i, f := range r.filters {
			outcomes[i] = r.evaluate(ctx, f, cand, posting)
		}
	}

	verdict := Aggregate(outcomes)
	r.logger.Debug("filter bank completed",
		zap.Bool("passed", verdict.Passed),
		zap.Strings("failed_filters", verdict.FailedNames()),
	)
	return verdict
}

// evaluate runs one filter with a timeout and a panic guard. Everything that
// goes wrong inside a filter is downgraded to a failing outcome.
func (r *Registry) evaluate(ctx context.Context, f Filter, cand *Candidate, posting *job.Posting) Outcome {
	evalCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- FailedOutcome(f.Name(), 0, fmt.Sprintf("filter panicked: %v", rec))
			}
		}()
		done <- f.Evaluate(evalCtx, cand, posting)
	}()

	var outcome Outcome
	select {
	case outcome = <-done:
	case <-evalCtx.Done():
		outcome = FailedOutcome(f.Name(), 0, fmt.Sprintf("evaluation did not complete: %v", evalCtx.Err()))
	}

	r.logger.Debug("filter evaluated",
		zap.String("filter", f.Name()),
		zap.Bool("passed", outcome.Passed),
		zap.Float64("score", outcome.Score),
		zap.Float64("threshold", outcome.Threshold),
	)
	return outcome
}
