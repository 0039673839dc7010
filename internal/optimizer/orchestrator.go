package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
)

// State names a phase of the optimization loop.
type State string

const (
	StateDrafting State = "drafting"
	StateScoring  State = "scoring"
	StateDeciding State = "deciding"
	StateRetrying State = "retrying"
)

// Status is the terminal outcome of a run.
type Status string

const (
	// StatusAccepted means a candidate passed every filter.
	StatusAccepted Status = "accepted"
	// StatusExhausted means the iteration budget ran out; the last candidate
	// and its verdict are still exposed.
	StatusExhausted Status = "exhausted"
	// StatusCanceled means the run was canceled externally.
	StatusCanceled Status = "canceled"
	// StatusFailed means the generator failed; the run could not even
	// attempt the quality bar.
	StatusFailed Status = "failed"
)

// Generator produces one candidate draft from the resume, the posting and
// the feedback derived from the previous failing verdict (nil on the first
// iteration).
type Generator interface {
	Draft(ctx context.Context, resume string, posting *job.Posting, feedback *Feedback) (*Candidate, error)
}

// IterationRecord captures one completed iteration: the candidate that was
// drafted and the verdict it received. The sequence is append-only and every
// scored iteration is recorded before the accept/retry decision, so even an
// exhausted run exposes its full history.
type IterationRecord struct {
	Index     int
	Candidate *Candidate
	Verdict   Verdict
}

// RunResult is the terminal state of one run. Created once at loop exit,
// immutable thereafter.
type RunResult struct {
	ID         string
	Status     Status
	Candidate  *Candidate
	Verdict    Verdict
	Records    []IterationRecord
	Iterations int
	Duration   time.Duration
}

// Config bounds a run.
type Config struct {
	// MaxIterations is the generator call budget. Must be at least 1.
	MaxIterations int
	// Parallel evaluates the filter bank concurrently within an iteration.
	Parallel bool
	// FeedbackCap limits issues/suggestions per filter in feedback payloads.
	// Zero means DefaultFeedbackCap.
	FeedbackCap int
}

// ConfigError reports an invalid orchestrator configuration. It is raised at
// construction, before any generator call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid optimizer configuration: %s", e.Reason)
}

// Orchestrator drives generator and filter bank through a bounded loop. A
// single run is strictly sequential across iterations; independent runs may
// execute concurrently because the orchestrator keeps no run-scoped state.
type Orchestrator struct {
	gen      Generator
	registry *Registry
	cfg      Config
	logger   *zap.Logger
}

// New validates the configuration and builds an orchestrator.
func New(gen Generator, registry *Registry, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	if gen == nil {
		return nil, &ConfigError{Reason: "generator is required"}
	}
	if registry == nil || registry.Len() == 0 {
		return nil, &ConfigError{Reason: "at least one filter is required"}
	}
	if cfg.MaxIterations < 1 {
		return nil, &ConfigError{Reason: fmt.Sprintf("max iterations must be positive, got %d", cfg.MaxIterations)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{gen: gen, registry: registry, cfg: cfg, logger: logger}, nil
}

// Run executes the optimization loop. The returned result always describes a
// terminal state; the error is non-nil only for generator failures and
// cancellation, mirroring the result status. A candidate that failed to
// generate is never scored or recorded.
func (o *Orchestrator) Run(ctx context.Context, resume string, posting *job.Posting) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{ID: uuid.NewString()}
	logger := o.logger.With(zap.String("run_id", res.ID), zap.String("job", posting.Label()))

	logger.Info("starting optimization run",
		zap.Int("max_iterations", o.cfg.MaxIterations),
		zap.Bool("parallel", o.cfg.Parallel),
		zap.Strings("filters", o.registry.Names()),
	)

	var feedback *Feedback
	var cand *Candidate
	var verdict Verdict
	iteration := 0

	state := StateDrafting
	for {
		switch state {
		case StateDrafting:
			if err := ctx.Err(); err != nil {
				return o.finish(res, StatusCanceled, cand, verdict, start, logger), err
			}

			logger.Info("drafting candidate",
				zap.Int("iteration", iteration),
				zap.Bool("with_feedback", feedback != nil),
			)

			drafted, err := o.gen.Draft(ctx, resume, posting, feedback)
			if err != nil {
				if ctx.Err() != nil {
					return o.finish(res, StatusCanceled, cand, verdict, start, logger), ctx.Err()
				}
				logger.Error("generator failed", zap.Int("iteration", iteration), zap.Error(err))
				o.finish(res, StatusFailed, cand, verdict, start, logger)
				return res, fmt.Errorf("drafting candidate: %w", err)
			}

			cand = drafted
			state = StateScoring

		case StateScoring:
			verdict = o.registry.Run(ctx, cand, posting, o.cfg.Parallel)
			res.Records = append(res.Records, IterationRecord{
				Index:     iteration,
				Candidate: cand,
				Verdict:   verdict,
			})
			state = StateDeciding

		case StateDeciding:
			if err := ctx.Err(); err != nil {
				return o.finish(res, StatusCanceled, cand, verdict, start, logger), err
			}

			if verdict.Passed {
				return o.finish(res, StatusAccepted, cand, verdict, start, logger), nil
			}

			if iteration+1 >= o.cfg.MaxIterations {
				return o.finish(res, StatusExhausted, cand, verdict, start, logger), nil
			}

			fb := DeriveFeedback(verdict, o.cfg.FeedbackCap)
			feedback = &fb
			iteration++
			logger.Info("retrying with feedback",
				zap.Int("next_iteration", iteration),
				zap.Strings("failed_filters", verdict.FailedNames()),
			)
			state = StateRetrying

		case StateRetrying:
			state = StateDrafting
		}
	}
}

func (o *Orchestrator) finish(res *RunResult, status Status, cand *Candidate, verdict Verdict, start time.Time, logger *zap.Logger) *RunResult {
	res.Status = status
	res.Candidate = cand
	res.Verdict = verdict
	res.Iterations = len(res.Records)
	res.Duration = time.Since(start)

	logger.Info("optimization run finished",
		zap.String("status", string(status)),
		zap.Int("iterations", res.Iterations),
		zap.Duration("duration", res.Duration),
	)
	return res
}
