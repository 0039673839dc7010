package filters

import (
	"context"
	"strings"

	"github.com/akarpov/hr-breaker/internal/htmltext"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

const (
	structureName      = "structure"
	structurePriority  = 4
	structureThreshold = 1.0
)

type structureCheck struct {
	ok         func(body, text string) bool
	issue      string
	suggestion string
}

// The candidate must survive automated resume screeners, so the checks ban
// markup that ATS parsers routinely choke on.
var structureChecks = []structureCheck{
	{
		ok:         func(body, _ string) bool { return strings.Contains(strings.ToLower(body), "<h1") },
		issue:      "no <h1> heading with the candidate's name",
		suggestion: "open the document with an <h1> containing the candidate's name",
	},
	{
		ok:         func(body, _ string) bool { return strings.Contains(strings.ToLower(body), "<h2") },
		issue:      "no <h2> section headings",
		suggestion: "structure the resume into sections with <h2> headings",
	},
	{
		ok:         func(_, text string) bool { return strings.Contains(strings.ToLower(text), "experience") },
		issue:      "no recognizable experience section",
		suggestion: "add a work experience section",
	},
	{
		ok:         func(_, text string) bool { return strings.Contains(strings.ToLower(text), "skill") },
		issue:      "no recognizable skills section",
		suggestion: "add a skills section listing relevant technologies",
	},
	{
		ok:         func(body, _ string) bool { return !strings.Contains(strings.ToLower(body), "<table") },
		issue:      "contains a <table>, which ATS parsers handle poorly",
		suggestion: "replace tables with headings and bullet lists",
	},
	{
		ok:         func(body, _ string) bool { return !strings.Contains(strings.ToLower(body), "<img") },
		issue:      "contains an <img>, which carries no parseable content",
		suggestion: "remove images; resumes should be text only",
	},
	{
		ok:         func(body, _ string) bool { return !strings.Contains(strings.ToLower(body), "<script") },
		issue:      "contains a <script> element",
		suggestion: "remove all script elements",
	},
}

// StructureConfig tunes the structure filter.
type StructureConfig struct {
	// Threshold is the minimum fraction of structural checks that must
	// pass. Zero means all of them.
	Threshold float64 `mapstructure:"threshold"`
}

type structureFilter struct {
	threshold float64
}

// NewStructure creates a filter enforcing semantic, ATS-friendly markup.
func NewStructure(cfg *StructureConfig) optimizer.Filter {
	threshold := structureThreshold
	if cfg != nil && cfg.Threshold > 0 {
		threshold = cfg.Threshold
	}
	return &structureFilter{threshold: threshold}
}

func (f *structureFilter) Name() string { return structureName }

func (f *structureFilter) Priority() int { return structurePriority }

func (f *structureFilter) Evaluate(_ context.Context, cand *optimizer.Candidate, _ *job.Posting) optimizer.Outcome {
	text := htmltext.Extract(cand.Body)

	passed := 0
	outcome := optimizer.Outcome{Filter: f.Name(), Threshold: f.threshold}
	for _, check := range structureChecks {
		if check.ok(cand.Body, text) {
			passed++
			continue
		}
		outcome.Issues = append(outcome.Issues, check.issue)
		outcome.Suggestions = append(outcome.Suggestions, check.suggestion)
	}

	outcome.Score = float64(passed) / float64(len(structureChecks))
	outcome.Passed = outcome.Score >= f.threshold
	if outcome.Passed {
		outcome.Issues = nil
		outcome.Suggestions = nil
	}
	return outcome
}
