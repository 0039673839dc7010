package optimizer

import (
	"context"

	"github.com/akarpov/hr-breaker/internal/job"
)

// Filter is a single independent quality check over a candidate draft.
//
// Evaluate must be pure for a given candidate, posting and construction-time
// configuration. Filters backed by an external service cannot guarantee that
// and must say so in their documentation; they are treated as best-effort.
// A filter that cannot complete its evaluation returns a failing Outcome
// (score 0, one issue describing the failure) instead of panicking or
// leaking an error: one broken filter must not abort the run.
type Filter interface {
	// Name identifies the filter in outcomes, feedback and logs.
	Name() string
	// Priority orders filters in verdicts and feedback. Lower runs first.
	// Gaps in the numbering are allowed.
	Priority() int
	// Evaluate scores the candidate against the posting.
	Evaluate(ctx context.Context, cand *Candidate, posting *job.Posting) Outcome
}

// Outcome is the result of one filter evaluating one candidate. It is
// created once and never mutated.
type Outcome struct {
	Filter      string
	Passed      bool
	Score       float64
	Threshold   float64
	Issues      []string
	Suggestions []string
}

// FailedOutcome builds the standard downgraded outcome for a filter that
// could not evaluate at all.
func FailedOutcome(name string, threshold float64, issue string) Outcome {
	return Outcome{
		Filter:    name,
		Passed:    false,
		Score:     0,
		Threshold: threshold,
		Issues:    []string{issue},
	}
}
