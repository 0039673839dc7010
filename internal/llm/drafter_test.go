package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, req Request) (string, error) {
	s.lastSystem = req.System
	s.lastPrompt = req.Prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func TestDrafterDraft(t *testing.T) {
	stub := &stubGenerator{response: "```html\n<h1>Jane Doe</h1>\n```"}
	drafter := NewDrafter(stub, 0, zap.NewNop())

	posting := &job.Posting{Title: "Go Developer", Company: "Acme", Keywords: []string{"Go"}}

	cand, err := drafter.Draft(context.Background(), "# Jane Doe\nGo developer.", posting, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cand.Body != "<h1>Jane Doe</h1>" {
		t.Fatalf("expected the fenced body to be stripped, got %q", cand.Body)
	}
	if stub.lastSystem == "" {
		t.Fatalf("expected a system prompt to be sent")
	}
	for _, want := range []string{"Go Developer", "Jane Doe", "Target job posting"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, stub.lastPrompt)
		}
	}
}

func TestDrafterIncludesFeedback(t *testing.T) {
	stub := &stubGenerator{response: "<h1>Jane</h1>"}
	drafter := NewDrafter(stub, 0, zap.NewNop())

	feedback := &optimizer.Feedback{Entries: []optimizer.FeedbackEntry{{
		Filter:    "keyword_coverage",
		Score:     0.2,
		Threshold: 0.6,
		Issues:    []string{`missing keyword "kubernetes"`},
	}}}

	_, err := drafter.Draft(context.Background(), "resume", &job.Posting{Title: "Dev"}, feedback)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stub.lastPrompt, "Feedback on the previous draft") {
		t.Fatalf("expected a feedback section in the prompt:\n%s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "kubernetes") {
		t.Fatalf("expected the failing issue in the prompt:\n%s", stub.lastPrompt)
	}
}

func TestDrafterWrapsProviderErrors(t *testing.T) {
	providerErr := errors.New("quota exceeded")
	drafter := NewDrafter(&stubGenerator{err: providerErr}, 0, zap.NewNop())

	_, err := drafter.Draft(context.Background(), "resume", &job.Posting{Title: "Dev"}, nil)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected a GenerationError, got %v", err)
	}
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected the provider error to be wrapped, got %v", err)
	}
	if genErr.Provider != "stub-model" {
		t.Fatalf("expected the provider model in the error, got %q", genErr.Provider)
	}
}

func TestDrafterRejectsEmptyInputs(t *testing.T) {
	drafter := NewDrafter(&stubGenerator{response: "<h1>Jane</h1>"}, 0, zap.NewNop())

	if _, err := drafter.Draft(context.Background(), "  ", &job.Posting{Title: "Dev"}, nil); err == nil {
		t.Fatalf("expected an error for an empty resume")
	}
	if _, err := drafter.Draft(context.Background(), "resume", nil, nil); err == nil {
		t.Fatalf("expected an error for a missing posting")
	}
}

func TestDrafterRejectsEmptyModelOutput(t *testing.T) {
	drafter := NewDrafter(&stubGenerator{response: "``````"}, 0, zap.NewNop())

	_, err := drafter.Draft(context.Background(), "resume", &job.Posting{Title: "Dev"}, nil)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected a GenerationError for an empty draft, got %v", err)
	}
}
