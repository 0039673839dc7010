package filters

import (
	"context"
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/akarpov/hr-breaker/internal/htmltext"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

const (
	lengthName      = "length_budget"
	lengthPriority  = 5
	lengthThreshold = 0.8

	defaultMinTokens = 350
	defaultMaxTokens = 900
)

// LengthConfig tunes the length budget filter.
type LengthConfig struct {
	// MinTokens and MaxTokens bound the candidate's text. Zero values mean
	// the defaults, which approximate a single printed page.
	MinTokens int `mapstructure:"min-tokens"`
	MaxTokens int `mapstructure:"max-tokens"`
	// Threshold is the minimum score; the score degrades with the distance
	// from the budget. Zero means the default.
	Threshold float64 `mapstructure:"threshold"`
}

type lengthBudget struct {
	minTokens int
	maxTokens int
	threshold float64

	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewLengthBudget creates a filter scoring the candidate's token count
// against a page budget. Token counting uses the GPT-4 encoding, which is a
// reasonable approximation across providers.
func NewLengthBudget(cfg *LengthConfig) optimizer.Filter {
	f := &lengthBudget{
		minTokens: defaultMinTokens,
		maxTokens: defaultMaxTokens,
		threshold: lengthThreshold,
	}
	if cfg != nil {
		if cfg.MinTokens > 0 {
			f.minTokens = cfg.MinTokens
		}
		if cfg.MaxTokens > 0 {
			f.maxTokens = cfg.MaxTokens
		}
		if cfg.Threshold > 0 {
			f.threshold = cfg.Threshold
		}
	}
	return f
}

func (f *lengthBudget) Name() string { return lengthName }

func (f *lengthBudget) Priority() int { return lengthPriority }

func (f *lengthBudget) Evaluate(_ context.Context, cand *optimizer.Candidate, _ *job.Posting) optimizer.Outcome {
	f.once.Do(func() {
		f.codec, f.err = tokenizer.ForModel(tokenizer.GPT4)
	})
	if f.err != nil {
		return optimizer.FailedOutcome(f.Name(), f.threshold, fmt.Sprintf("tokenizer unavailable: %v", f.err))
	}

	count, err := f.codec.Count(htmltext.Extract(cand.Body))
	if err != nil {
		return optimizer.FailedOutcome(f.Name(), f.threshold, fmt.Sprintf("token counting failed: %v", err))
	}

	outcome := optimizer.Outcome{Filter: f.Name(), Threshold: f.threshold}
	switch {
	case count < f.minTokens:
		outcome.Score = float64(count) / float64(f.minTokens)
		outcome.Issues = []string{fmt.Sprintf("resume body is too short: %d tokens, expected at least %d", count, f.minTokens)}
		outcome.Suggestions = []string{"expand the most relevant experience entries with concrete, truthful accomplishments"}
	case count > f.maxTokens:
		outcome.Score = float64(f.maxTokens) / float64(count)
		outcome.Issues = []string{fmt.Sprintf("resume body is too long: %d tokens, expected at most %d", count, f.maxTokens)}
		outcome.Suggestions = []string{"trim older or less relevant entries so the resume fits one page"}
	default:
		outcome.Score = 1
	}

	outcome.Passed = outcome.Score >= f.threshold
	if outcome.Passed {
		outcome.Issues = nil
		outcome.Suggestions = nil
	}
	return outcome
}
