package optimizer

import (
	"fmt"
	"strings"
)

// Verdict is the aggregated decision for one candidate: the logical AND of
// every filter outcome, with outcomes kept in filter priority order. Build
// verdicts through Aggregate only so the invariant holds.
type Verdict struct {
	Passed   bool
	Outcomes []Outcome
}

// Aggregate combines per-filter outcomes into a single verdict. A single
// failing filter fails the candidate; there is no partial credit across
// filters.
func Aggregate(outcomes []Outcome) Verdict {
	passed := true
	for i := range outcomes {
		if !outcomes[i].Passed {
			passed = false
			break
		}
	}
	return Verdict{Passed: passed, Outcomes: outcomes}
}

// FailedNames returns the names of failing filters in outcome order.
func (v Verdict) FailedNames() []string {
	names := make([]string, 0)
	for i := range v.Outcomes {
		if !v.Outcomes[i].Passed {
			names = append(names, v.Outcomes[i].Filter)
		}
	}
	return names
}

// FeedbackEntry carries one failing filter's issues and suggestions.
type FeedbackEntry struct {
	Filter      string
	Score       float64
	Threshold   float64
	Issues      []string
	Suggestions []string
}

// Feedback is the consolidated failure information handed to the next
// drafting attempt. It only ever contains entries from failing filters,
// ordered by filter priority, one entry per filter.
type Feedback struct {
	Entries []FeedbackEntry
}

// DefaultFeedbackCap bounds issues and suggestions taken per filter so the
// payload fed back into the generator cannot grow without bound.
const DefaultFeedbackCap = 5

// DeriveFeedback extracts feedback from a failing verdict. perFilterCap
// limits issues and suggestions taken per filter; values below 1 fall back
// to DefaultFeedbackCap.
func DeriveFeedback(v Verdict, perFilterCap int) Feedback {
	if perFilterCap < 1 {
		perFilterCap = DefaultFeedbackCap
	}

	seen := make(map[string]bool)
	entries := make([]FeedbackEntry, 0)
	for i := range v.Outcomes {
		o := &v.Outcomes[i]
		if o.Passed || seen[o.Filter] {
			continue
		}
		seen[o.Filter] = true

		entries = append(entries, FeedbackEntry{
			Filter:      o.Filter,
			Score:       o.Score,
			Threshold:   o.Threshold,
			Issues:      capped(o.Issues, perFilterCap),
			Suggestions: capped(o.Suggestions, perFilterCap),
		})
	}

	return Feedback{Entries: entries}
}

func capped(items []string, limit int) []string {
	if len(items) <= limit {
		return append([]string(nil), items...)
	}
	return append([]string(nil), items[:limit]...)
}

// Empty reports whether the feedback carries no entries.
func (f Feedback) Empty() bool { return len(f.Entries) == 0 }

// Render formats the feedback as prompt text for the generator.
func (f Feedback) Render() string {
	if f.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("The previous draft failed the following quality checks. Fix every one of them.\n")
	for _, entry := range f.Entries {
		fmt.Fprintf(&b, "\nCheck %q scored %.2f (required %.2f).\n", entry.Filter, entry.Score, entry.Threshold)
		if len(entry.Issues) > 0 {
			b.WriteString("Issues:\n")
			for _, issue := range entry.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
		}
		if len(entry.Suggestions) > 0 {
			b.WriteString("Suggestions:\n")
			for _, s := range entry.Suggestions {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	}
	return b.String()
}
