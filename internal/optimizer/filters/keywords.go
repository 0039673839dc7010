// Package filters contains the built-in quality checks run against every
// candidate draft.
package filters

import (
	"context"
	"fmt"
	"strings"

	"github.com/akarpov/hr-breaker/internal/htmltext"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

const (
	keywordCoverageName      = "keyword_coverage"
	keywordCoveragePriority  = 1
	keywordCoverageThreshold = 0.6
)

// KeywordCoverageConfig tunes the keyword coverage filter.
type KeywordCoverageConfig struct {
	// Threshold is the minimum fraction of job keywords that must appear in
	// the candidate. Zero means the default.
	Threshold float64 `mapstructure:"threshold"`
}

type keywordCoverage struct {
	threshold float64
}

// NewKeywordCoverage creates a filter scoring the fraction of the posting's
// keywords present in the candidate.
func NewKeywordCoverage(cfg *KeywordCoverageConfig) optimizer.Filter {
	threshold := keywordCoverageThreshold
	if cfg != nil && cfg.Threshold > 0 {
		threshold = cfg.Threshold
	}
	return &keywordCoverage{threshold: threshold}
}

func (f *keywordCoverage) Name() string { return keywordCoverageName }

func (f *keywordCoverage) Priority() int { return keywordCoveragePriority }

func (f *keywordCoverage) Evaluate(_ context.Context, cand *optimizer.Candidate, posting *job.Posting) optimizer.Outcome {
	if len(posting.Keywords) == 0 {
		return optimizer.Outcome{
			Filter:    f.Name(),
			Passed:    true,
			Score:     1,
			Threshold: f.threshold,
		}
	}

	text := strings.ToLower(htmltext.Extract(cand.Body))

	missing := make([]string, 0)
	matched := 0
	for _, keyword := range posting.Keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			matched++
		} else {
			missing = append(missing, keyword)
		}
	}

	total := matched + len(missing)
	if total == 0 {
		return optimizer.Outcome{Filter: f.Name(), Passed: true, Score: 1, Threshold: f.threshold}
	}

	score := float64(matched) / float64(total)
	passed := score >= f.threshold

	outcome := optimizer.Outcome{
		Filter:    f.Name(),
		Passed:    passed,
		Score:     score,
		Threshold: f.threshold,
	}
	if !passed {
		for _, kw := range missing {
			outcome.Issues = append(outcome.Issues, fmt.Sprintf("keyword %q from the job posting is missing", kw))
			outcome.Suggestions = append(outcome.Suggestions, fmt.Sprintf("work %q into a truthful experience bullet or the skills section", kw))
		}
	}
	return outcome
}
