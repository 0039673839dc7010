// Package optimizer contains the optimization control loop: a generator
// produces resume drafts, a bank of filters scores each draft, and the
// orchestrator iterates with consolidated feedback until every filter passes
// or the iteration budget runs out.
package optimizer

// Candidate is one generated resume draft. The body is a semantic HTML
// fragment intended for a wrapping renderer. Candidates are immutable once
// produced and belong to the iteration that created them.
type Candidate struct {
	Body string
}

// NewCandidate wraps a generated body.
func NewCandidate(body string) *Candidate {
	return &Candidate{Body: body}
}
