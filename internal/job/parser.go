package job

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/llm"
)

//go:embed parser_prompt.md
var parserSystemPrompt string

// Parser extracts a structured posting from raw job text using a model with
// a strict verbatim-only instruction: fields missing from the source stay
// empty rather than being invented.
type Parser struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewParser creates a posting parser over the given generator.
func NewParser(gen llm.Generator, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{gen: gen, logger: logger}
}

// Parse turns raw posting text into a normalized Posting.
func (p *Parser) Parse(ctx context.Context, text string) (*Posting, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("job text must not be empty")
	}

	raw, err := p.gen.Generate(ctx, llm.Request{
		System: parserSystemPrompt,
		Prompt: fmt.Sprintf("Parse this job posting:\n\n%s", text),
	})
	if err != nil {
		return nil, fmt.Errorf("parse job posting: %w", err)
	}

	data, err := llm.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("job parser returned malformed output: %w", err)
	}

	posting := &Posting{
		Title:        llm.CoerceString(data["title"]),
		Company:      llm.CoerceString(data["company"]),
		Requirements: llm.CoerceStringSlice(data["requirements"]),
		Keywords:     llm.CoerceStringSlice(data["keywords"]),
		Description:  llm.CoerceString(data["description"]),
		RawText:      text,
	}

	p.logger.Debug("job posting parsed",
		zap.String("title", posting.Title),
		zap.String("company", posting.Company),
		zap.Int("requirements", len(posting.Requirements)),
		zap.Int("keywords", len(posting.Keywords)),
	)

	return posting, nil
}
