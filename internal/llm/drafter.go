package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/logger"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

//go:embed drafter_prompt.md
var drafterSystemPrompt string

const defaultMaxLogLength = 200

// Drafter turns a resume and a job posting into candidate drafts through a
// Generator. It is the optimizer's generator port: provider failures and
// malformed output come back as *GenerationError and are fatal for the run.
type Drafter struct {
	gen       Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewDrafter builds a Drafter around the given provider.
func NewDrafter(gen Generator, maxLogLength int, log *zap.Logger) *Drafter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Drafter{gen: gen, logger: log, maxLogLen: maxLogLength}
}

// Draft implements optimizer.Generator.
func (d *Drafter) Draft(ctx context.Context, resume string, posting *job.Posting, feedback *optimizer.Feedback) (*optimizer.Candidate, error) {
	prompt, err := d.buildPrompt(resume, posting, feedback)
	if err != nil {
		return nil, &GenerationError{Provider: d.gen.Model(), Err: err}
	}

	d.logger.Debug("drafting request",
		zap.String("model", d.gen.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, d.maxLogLen)),
	)

	raw, err := d.gen.Generate(ctx, Request{System: drafterSystemPrompt, Prompt: prompt})
	if err != nil {
		return nil, &GenerationError{Provider: d.gen.Model(), Err: err}
	}

	d.logger.Debug("drafting response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, d.maxLogLen)),
	)

	body := StripFences(raw)
	if body == "" {
		return nil, &GenerationError{Provider: d.gen.Model(), Err: fmt.Errorf("model returned empty draft")}
	}

	return optimizer.NewCandidate(body), nil
}

func (d *Drafter) buildPrompt(resume string, posting *job.Posting, feedback *optimizer.Feedback) (string, error) {
	resume = strings.TrimSpace(resume)
	if resume == "" {
		return "", fmt.Errorf("resume content must not be empty")
	}
	if posting == nil {
		return "", fmt.Errorf("job posting is required")
	}

	jobJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job posting: %w", err)
	}

	var b strings.Builder
	b.WriteString("Target job posting:\n")
	b.Write(jobJSON)
	b.WriteString("\n\nSource resume:\n")
	b.WriteString(resume)

	if feedback != nil && !feedback.Empty() {
		b.WriteString("\n\nFeedback on the previous draft:\n")
		b.WriteString(feedback.Render())
	}

	b.WriteString("\nProduce the tailored resume HTML fragment now.")
	return b.String(), nil
}
