package llm

import (
	"context"
	"fmt"
)

// Request is a single prompt exchange sent to a provider.
type Request struct {
	// System carries instructions that frame the task. Providers that have
	// no dedicated system channel prepend it to the prompt.
	System string
	// Prompt is the user-facing content of the request.
	Prompt string
}

// Generator abstracts a text-generation provider. Implementations are
// expected to be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// GenerationError marks an upstream provider failure. Callers treat it as
// fatal for the current run: the orchestrator does not retry it internally.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
