package filters

import (
	"context"
	"strings"
	"testing"

	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

const wellFormedResume = `
<h1>Jane Doe</h1>
<h2>Experience</h2>
<ul><li>Senior Go developer at Acme.</li></ul>
<h2>Skills</h2>
<p>Go, Kubernetes, PostgreSQL.</p>
`

func TestStructurePassesWellFormedResume(t *testing.T) {
	filter := NewStructure(nil)

	outcome := filter.Evaluate(context.Background(), optimizer.NewCandidate(wellFormedResume), &job.Posting{})

	if !outcome.Passed || outcome.Score != 1 {
		t.Fatalf("expected a full pass, got %+v", outcome)
	}
	if len(outcome.Issues) != 0 {
		t.Fatalf("passing outcome must carry no issues, got %v", outcome.Issues)
	}
}

func TestStructureRejectsBannedMarkup(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		issue string
	}{
		{
			name:  "table",
			body:  wellFormedResume + "<table><tr><td>layout</td></tr></table>",
			issue: "<table>",
		},
		{
			name:  "image",
			body:  wellFormedResume + `<img src="photo.png">`,
			issue: "<img>",
		},
		{
			name:  "script",
			body:  wellFormedResume + "<script>alert(1)</script>",
			issue: "<script>",
		},
	}

	filter := NewStructure(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := filter.Evaluate(context.Background(), optimizer.NewCandidate(tc.body), &job.Posting{})

			if outcome.Passed {
				t.Fatalf("expected a failure, got %+v", outcome)
			}
			found := false
			for _, issue := range outcome.Issues {
				if strings.Contains(issue, tc.issue) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected an issue mentioning %s, got %v", tc.issue, outcome.Issues)
			}
		})
	}
}

func TestStructureRequiresHeadingsAndSections(t *testing.T) {
	filter := NewStructure(nil)

	outcome := filter.Evaluate(context.Background(), optimizer.NewCandidate("<p>just a paragraph</p>"), &job.Posting{})

	if outcome.Passed {
		t.Fatalf("expected a failure, got %+v", outcome)
	}
	if len(outcome.Issues) != 4 {
		t.Fatalf("expected missing h1, h2, experience and skills, got %v", outcome.Issues)
	}
	if len(outcome.Issues) != len(outcome.Suggestions) {
		t.Fatalf("each issue needs a suggestion, got %+v", outcome)
	}
}

func TestStructureRelaxedThreshold(t *testing.T) {
	filter := NewStructure(&StructureConfig{Threshold: 0.8})
	// 6 of 7 checks pass: the skills section is missing.
	body := "<h1>Jane Doe</h1><h2>Experience</h2><p>Go developer.</p>"

	outcome := filter.Evaluate(context.Background(), optimizer.NewCandidate(body), &job.Posting{})

	if !outcome.Passed {
		t.Fatalf("expected a pass at threshold 0.8, got %+v", outcome)
	}
}
