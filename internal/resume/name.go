package resume

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"github.com/akarpov/hr-breaker/internal/llm"
)

//go:embed name_prompt.md
var namePrompt string

// nameExcerptLimit bounds how much of the resume is sent for name
// extraction; the name lives in the header.
const nameExcerptLimit = 2000

// ExtractName pulls the candidate's first and last name out of the resume
// content. Missing names come back as empty strings, never invented.
func ExtractName(ctx context.Context, gen llm.Generator, content string) (first, last string, err error) {
	excerpt := strings.TrimSpace(content)
	if excerpt == "" {
		return "", "", fmt.Errorf("resume content must not be empty")
	}
	if runes := []rune(excerpt); len(runes) > nameExcerptLimit {
		excerpt = string(runes[:nameExcerptLimit])
	}

	raw, err := gen.Generate(ctx, llm.Request{
		System: namePrompt,
		Prompt: fmt.Sprintf("Resume text:\n\n%s", excerpt),
	})
	if err != nil {
		return "", "", fmt.Errorf("extract name: %w", err)
	}

	data, err := llm.DecodeJSON(raw)
	if err != nil {
		return "", "", fmt.Errorf("name extractor returned malformed output: %w", err)
	}

	return llm.CoerceString(data["first_name"]), llm.CoerceString(data["last_name"]), nil
}
