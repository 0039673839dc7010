package filters

import (
	"context"
	"fmt"
	"strings"

	"github.com/akarpov/hr-breaker/internal/htmltext"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/logger"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

const (
	requirementsName = "requirements_relevance"
	// The filter bank numbering intentionally skips 2.
	requirementsPriority  = 3
	requirementsThreshold = 0.5
	requirementsMinTerm   = 4
)

var stopwords = map[string]bool{
	"with": true, "that": true, "this": true, "have": true, "from": true,
	"your": true, "will": true, "must": true, "able": true, "than": true,
	"more": true, "years": true, "experience": true, "knowledge": true,
	"strong": true, "good": true, "excellent": true, "working": true,
	"skills": true, "ability": true, "understanding": true,
}

// RequirementsConfig tunes the requirements relevance filter.
type RequirementsConfig struct {
	// Threshold is the minimum fraction of requirements the candidate must
	// address. Zero means the default.
	Threshold float64 `mapstructure:"threshold"`
}

type requirementsRelevance struct {
	threshold float64
}

// NewRequirementsRelevance creates a filter scoring how many of the
// posting's requirements the candidate addresses, by lexical overlap.
func NewRequirementsRelevance(cfg *RequirementsConfig) optimizer.Filter {
	threshold := requirementsThreshold
	if cfg != nil && cfg.Threshold > 0 {
		threshold = cfg.Threshold
	}
	return &requirementsRelevance{threshold: threshold}
}

func (f *requirementsRelevance) Name() string { return requirementsName }

func (f *requirementsRelevance) Priority() int { return requirementsPriority }

func (f *requirementsRelevance) Evaluate(_ context.Context, cand *optimizer.Candidate, posting *job.Posting) optimizer.Outcome {
	if len(posting.Requirements) == 0 {
		return optimizer.Outcome{Filter: f.Name(), Passed: true, Score: 1, Threshold: f.threshold}
	}

	text := strings.ToLower(htmltext.Extract(cand.Body))

	covered := 0
	uncovered := make([]string, 0)
	for _, req := range posting.Requirements {
		terms := significantTerms(req)
		if len(terms) == 0 {
			covered++
			continue
		}
		hits := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		// A requirement counts as addressed when at least half of its
		// significant terms show up in the candidate.
		if hits*2 >= len(terms) {
			covered++
		} else {
			uncovered = append(uncovered, req)
		}
	}

	score := float64(covered) / float64(len(posting.Requirements))
	passed := score >= f.threshold

	outcome := optimizer.Outcome{
		Filter:    f.Name(),
		Passed:    passed,
		Score:     score,
		Threshold: f.threshold,
	}
	if !passed {
		for _, req := range uncovered {
			outcome.Issues = append(outcome.Issues, fmt.Sprintf("requirement not addressed: %s", logger.TruncateForLog(req, 120)))
			outcome.Suggestions = append(outcome.Suggestions, fmt.Sprintf("surface existing experience matching %q, if any", logger.TruncateForLog(req, 80)))
		}
	}
	return outcome
}

func significantTerms(req string) []string {
	fields := strings.FieldsFunc(strings.ToLower(req), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '+' || r == '#' || r == '.')
	})

	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.Trim(field, ".")
		if len(field) < requirementsMinTerm || stopwords[field] {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}
