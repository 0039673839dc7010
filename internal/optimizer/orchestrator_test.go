package optimizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
)

type stubDrafter struct {
	bodies    []string
	errs      []error
	calls     int
	feedbacks []*Feedback
}

func (s *stubDrafter) Draft(_ context.Context, _ string, _ *job.Posting, feedback *Feedback) (*Candidate, error) {
	i := s.calls
	s.calls++
	s.feedbacks = append(s.feedbacks, feedback)

	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.bodies) {
		return NewCandidate(s.bodies[i]), nil
	}
	return NewCandidate(fmt.Sprintf("draft %d", i)), nil
}

type stubFilter struct {
	name     string
	priority int
	eval     func(cand *Candidate) Outcome
}

func (s *stubFilter) Name() string  { return s.name }
func (s *stubFilter) Priority() int { return s.priority }

func (s *stubFilter) Evaluate(_ context.Context, cand *Candidate, _ *job.Posting) Outcome {
	return s.eval(cand)
}

func passingFilter(name string, priority int) *stubFilter {
	return &stubFilter{name: name, priority: priority, eval: func(*Candidate) Outcome {
		return Outcome{Filter: name, Passed: true, Score: 1, Threshold: 0.5}
	}}
}

func failingFilter(name string, priority int, issue string) *stubFilter {
	return &stubFilter{name: name, priority: priority, eval: func(*Candidate) Outcome {
		return Outcome{
			Filter:      name,
			Passed:      false,
			Score:       0.2,
			Threshold:   0.5,
			Issues:      []string{issue},
			Suggestions: []string{"rework the draft"},
		}
	}}
}

func testPosting() *job.Posting {
	return &job.Posting{Title: "Go Developer", Company: "Acme"}
}

func newTestOrchestrator(t *testing.T, gen Generator, filters []Filter, cfg Config) *Orchestrator {
	t.Helper()

	orch, err := New(gen, NewRegistry(filters, zap.NewNop()), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return orch
}

func TestRunAcceptsFirstCandidate(t *testing.T) {
	gen := &stubDrafter{bodies: []string{"first draft"}}
	orch := newTestOrchestrator(t, gen, []Filter{passingFilter("alpha", 1)}, Config{MaxIterations: 3})

	result, err := orch.Run(context.Background(), "resume", testPosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", result.Status)
	}
	if result.Candidate == nil || result.Candidate.Body != "first draft" {
		t.Fatalf("unexpected candidate: %+v", result.Candidate)
	}
	if result.Iterations != 1 || len(result.Records) != 1 {
		t.Fatalf("expected a single recorded iteration, got %d records", len(result.Records))
	}
	if gen.feedbacks[0] != nil {
		t.Fatalf("expected no feedback on the first draft")
	}
	if result.ID == "" {
		t.Fatalf("expected a run id")
	}
}

func TestRunRetriesWithFeedback(t *testing.T) {
	gen := &stubDrafter{bodies: []string{"weak draft", "strong draft"}}
	reject := &stubFilter{name: "alpha", priority: 1, eval: func(cand *Candidate) Outcome {
		if cand.Body == "weak draft" {
			return Outcome{
				Filter: "alpha", Passed: false, Score: 0.1, Threshold: 0.5,
				Issues: []string{"missing keywords"},
			}
		}
		return Outcome{Filter: "alpha", Passed: true, Score: 0.9, Threshold: 0.5}
	}}

	orch := newTestOrchestrator(t, gen, []Filter{reject}, Config{MaxIterations: 3})

	result, err := orch.Run(context.Background(), "resume", testPosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", result.Status)
	}
	if result.Iterations != 2 {
		t.Fatalf("expected 2 iterations, got %d", result.Iterations)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0].Verdict.Passed || !result.Records[1].Verdict.Passed {
		t.Fatalf("unexpected verdict sequence")
	}

	fb := gen.feedbacks[1]
	if fb == nil || len(fb.Entries) != 1 {
		t.Fatalf("expected feedback from the failing verdict, got %+v", fb)
	}
	if fb.Entries[0].Filter != "alpha" || fb.Entries[0].Issues[0] != "missing keywords" {
		t.Fatalf("unexpected feedback entry: %+v", fb.Entries[0])
	}
}

func TestRunExhaustsIterationBudget(t *testing.T) {
	gen := &stubDrafter{}
	orch := newTestOrchestrator(t, gen, []Filter{failingFilter("alpha", 1, "too short")}, Config{MaxIterations: 3})

	result, err := orch.Run(context.Background(), "resume", testPosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusExhausted {
		t.Fatalf("expected exhausted, got %s", result.Status)
	}
	if gen.calls != 3 {
		t.Fatalf("expected exactly 3 generator calls, got %d", gen.calls)
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}
	// the last candidate and its verdict stay visible for inspection
	if result.Candidate == nil || result.Candidate.Body != "draft 2" {
		t.Fatalf("expected the last drafted candidate, got %+v", result.Candidate)
	}
	if result.Verdict.Passed {
		t.Fatalf("exhausted run must expose a failing verdict")
	}
}

func TestRunGeneratorFailureIsFatal(t *testing.T) {
	genErr := errors.New("model unavailable")
	gen := &stubDrafter{errs: []error{genErr}}
	orch := newTestOrchestrator(t, gen, []Filter{passingFilter("alpha", 1)}, Config{MaxIterations: 5})

	result, err := orch.Run(context.Background(), "resume", testPosting())
	if err == nil || !errors.Is(err, genErr) {
		t.Fatalf("expected the generator error, got %v", err)
	}

	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	// a draft that never existed is not scored or recorded
	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(result.Records))
	}
	if gen.calls != 1 {
		t.Fatalf("generator failures must not be retried, got %d calls", gen.calls)
	}
}

func TestRunGeneratorFailureKeepsEarlierRecords(t *testing.T) {
	gen := &stubDrafter{errs: []error{nil, errors.New("model unavailable")}}
	orch := newTestOrchestrator(t, gen, []Filter{failingFilter("alpha", 1, "too short")}, Config{MaxIterations: 5})

	result, err := orch.Run(context.Background(), "resume", testPosting())
	if err == nil {
		t.Fatalf("expected an error")
	}

	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected the completed iteration to remain recorded, got %d", len(result.Records))
	}
}

func TestRunCanceledBeforeDrafting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &stubDrafter{}
	orch := newTestOrchestrator(t, gen, []Filter{passingFilter("alpha", 1)}, Config{MaxIterations: 3})

	result, err := orch.Run(ctx, "resume", testPosting())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if result.Status != StatusCanceled {
		t.Fatalf("expected canceled, got %s", result.Status)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generator calls after cancellation, got %d", gen.calls)
	}
}

func TestNewValidatesConfiguration(t *testing.T) {
	gen := &stubDrafter{}
	registry := NewRegistry([]Filter{passingFilter("alpha", 1)}, zap.NewNop())

	cases := []struct {
		name     string
		gen      Generator
		registry *Registry
		cfg      Config
	}{
		{name: "nil generator", gen: nil, registry: registry, cfg: Config{MaxIterations: 1}},
		{name: "empty registry", gen: gen, registry: NewRegistry(nil, zap.NewNop()), cfg: Config{MaxIterations: 1}},
		{name: "zero iterations", gen: gen, registry: registry, cfg: Config{MaxIterations: 0}},
		{name: "negative iterations", gen: gen, registry: registry, cfg: Config{MaxIterations: -2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.gen, tc.registry, tc.cfg, zap.NewNop())

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected a ConfigError, got %v", err)
			}
		})
	}
}
