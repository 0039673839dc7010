package filters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	_ "embed"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

//go:embed aifit_prompt.md
var aiFitSystemPrompt string

const (
	aiFitName      = "ai_fit"
	aiFitPriority  = 9
	aiFitThreshold = 0.7
)

// AIFitConfig tunes the AI fit filter.
type AIFitConfig struct {
	// MinScore is the minimum model-judged fit score. Zero means the default.
	MinScore float64 `mapstructure:"min-score"`
}

// aiFit asks a model to judge how well the candidate targets the posting.
//
// Unlike the rest of the bank this filter calls an external non-deterministic
// service: evaluating the same candidate twice may yield different scores, so
// it is best-effort. Provider failures are downgraded to a failing outcome,
// never propagated.
type aiFit struct {
	gen      llm.Generator
	minScore float64
	logger   *zap.Logger
}

// NewAIFit creates the model-judged fit filter.
func NewAIFit(gen llm.Generator, cfg *AIFitConfig, logger *zap.Logger) optimizer.Filter {
	minScore := aiFitThreshold
	if cfg != nil && cfg.MinScore > 0 {
		minScore = cfg.MinScore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &aiFit{gen: gen, minScore: minScore, logger: logger}
}

func (f *aiFit) Name() string { return aiFitName }

func (f *aiFit) Priority() int { return aiFitPriority }

func (f *aiFit) Evaluate(ctx context.Context, cand *optimizer.Candidate, posting *job.Posting) optimizer.Outcome {
	if f.gen == nil {
		return optimizer.FailedOutcome(f.Name(), f.minScore, "ai fit generator is not configured")
	}

	jobJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return optimizer.FailedOutcome(f.Name(), f.minScore, fmt.Sprintf("marshal job posting: %v", err))
	}

	prompt := fmt.Sprintf("Job posting:\n%s\n\nResume HTML:\n%s\n\nJSON response:", jobJSON, cand.Body)

	raw, err := f.gen.Generate(ctx, llm.Request{System: aiFitSystemPrompt, Prompt: prompt})
	if err != nil {
		f.logger.Warn("ai fit evaluation failed", zap.Error(err))
		return optimizer.FailedOutcome(f.Name(), f.minScore, fmt.Sprintf("ai evaluation failed: %v", err))
	}

	data, err := llm.DecodeJSON(raw)
	if err != nil {
		return optimizer.FailedOutcome(f.Name(), f.minScore, fmt.Sprintf("unparsable ai response: %v", err))
	}

	score := llm.CoerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	outcome := optimizer.Outcome{
		Filter:    f.Name(),
		Score:     score,
		Threshold: f.minScore,
		Passed:    score >= f.minScore,
	}
	if !outcome.Passed {
		outcome.Issues = llm.CoerceStringSlice(data["issues"])
		outcome.Suggestions = llm.CoerceStringSlice(data["suggestions"])
		if len(outcome.Issues) == 0 {
			outcome.Issues = []string{fmt.Sprintf("model judged the fit at %.2f, below %.2f", score, f.minScore)}
		}
	}

	f.logger.Debug("ai fit evaluated",
		zap.Float64("score", score),
		zap.Bool("passed", outcome.Passed),
	)
	return outcome
}
