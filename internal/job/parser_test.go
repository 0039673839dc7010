package job

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/llm"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	s.lastSystem = req.System
	s.lastPrompt = req.Prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func TestParserParse(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"title": "Senior Go Developer",
		"company": "Acme",
		"requirements": ["5 years of Go", "Kubernetes in production"],
		"keywords": ["Go", "Kubernetes", "gRPC"],
		"description": "Backend team."
	}` + "\n```"}

	parser := NewParser(stub, zap.NewNop())

	posting, err := parser.Parse(context.Background(), "We are hiring a Senior Go Developer at Acme...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if posting.Title != "Senior Go Developer" || posting.Company != "Acme" {
		t.Fatalf("unexpected posting: %+v", posting)
	}
	if !reflect.DeepEqual(posting.Keywords, []string{"Go", "Kubernetes", "gRPC"}) {
		t.Fatalf("unexpected keywords: %v", posting.Keywords)
	}
	if len(posting.Requirements) != 2 {
		t.Fatalf("unexpected requirements: %v", posting.Requirements)
	}
	if posting.RawText == "" {
		t.Fatalf("expected the raw text to be preserved")
	}
	if !strings.Contains(stub.lastPrompt, "We are hiring") {
		t.Fatalf("prompt must carry the posting text, got: %s", stub.lastPrompt)
	}
	if stub.lastSystem == "" {
		t.Fatalf("expected a system prompt to be sent")
	}
}

func TestParserToleratesMissingFields(t *testing.T) {
	stub := &stubGenerator{response: `{"title": "Developer"}`}
	parser := NewParser(stub, zap.NewNop())

	posting, err := parser.Parse(context.Background(), "short posting")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if posting.Company != "" || posting.Description != "" {
		t.Fatalf("absent fields must stay empty, got %+v", posting)
	}
	if len(posting.Keywords) != 0 || len(posting.Requirements) != 0 {
		t.Fatalf("absent lists must stay empty, got %+v", posting)
	}
}

func TestParserRejectsEmptyText(t *testing.T) {
	parser := NewParser(&stubGenerator{}, zap.NewNop())

	if _, err := parser.Parse(context.Background(), "   \n "); err == nil {
		t.Fatalf("expected an error for empty text")
	}
}

func TestParserPropagatesGeneratorError(t *testing.T) {
	genErr := errors.New("quota exceeded")
	parser := NewParser(&stubGenerator{err: genErr}, zap.NewNop())

	_, err := parser.Parse(context.Background(), "some posting")
	if !errors.Is(err, genErr) {
		t.Fatalf("expected the generator error, got %v", err)
	}
}

func TestParserRejectsMalformedOutput(t *testing.T) {
	parser := NewParser(&stubGenerator{response: "sorry, I cannot parse this"}, zap.NewNop())

	if _, err := parser.Parse(context.Background(), "some posting"); err == nil {
		t.Fatalf("expected an error for malformed model output")
	}
}

func TestPostingLabel(t *testing.T) {
	cases := []struct {
		posting Posting
		want    string
	}{
		{Posting{Company: "Acme", Title: "Go Developer"}, "Acme / Go Developer"},
		{Posting{Title: "Go Developer"}, "Go Developer"},
		{Posting{Company: "Acme"}, "Acme"},
		{Posting{}, "unknown"},
	}

	for _, tc := range cases {
		if got := tc.posting.Label(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
