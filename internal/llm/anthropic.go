package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 8192

// Anthropic implements Generator using the official Anthropic messages API.
type Anthropic struct {
	client    anthropic.Client
	modelName string
}

// NewAnthropic creates a Generator backed by the Anthropic messages API.
func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		return nil, errors.New("anthropic model is required")
	}

	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelName: model,
	}, nil
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: system,
			Type: "text",
		}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return "", errors.New("anthropic api returned empty response")
	}

	var builder strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.AsText().Text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("anthropic api returned no text content")
	}

	return output, nil
}

func (a *Anthropic) Model() string { return a.modelName }
