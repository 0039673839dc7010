// Package render turns an accepted candidate into a standalone HTML
// artifact.
package render

import (
	"bytes"
	"fmt"
	"strings"

	_ "embed"

	"github.com/yuin/goldmark"

	"github.com/akarpov/hr-breaker/internal/htmltext"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

//go:embed wrapper.html
var wrapperHTML string

// onePageChars approximates how much extracted text fits a printed page.
const onePageChars = 4200

// Artifact is the rendered document.
type Artifact struct {
	HTML     []byte
	Warnings []string
}

// Render wraps the candidate body in the document shell. Bodies that look
// like markdown rather than HTML are converted first; generators usually
// honor the HTML instruction, but not always.
func Render(cand *optimizer.Candidate) (*Artifact, error) {
	if cand == nil || strings.TrimSpace(cand.Body) == "" {
		return nil, fmt.Errorf("candidate body must not be empty")
	}

	body := strings.TrimSpace(cand.Body)
	if !looksLikeHTML(body) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(body), &buf); err != nil {
			return nil, fmt.Errorf("convert markdown body: %w", err)
		}
		body = buf.String()
	}

	var warnings []string
	if n := len(htmltext.Extract(body)); n > onePageChars {
		warnings = append(warnings, fmt.Sprintf("document likely exceeds one page (%d chars of text)", n))
	}

	return &Artifact{
		HTML:     []byte(strings.ReplaceAll(wrapperHTML, "{{BODY}}", body)),
		Warnings: warnings,
	}, nil
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<") {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "<h1") || strings.Contains(lower, "<p>") || strings.Contains(lower, "<ul")
}
