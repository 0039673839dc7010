package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// Ollama implements Generator against a local Ollama runtime.
type Ollama struct {
	client    *api.Client
	modelName string
}

// NewOllama creates a Generator backed by an Ollama server. An empty host
// falls back to the default local address.
func NewOllama(host, model string) (*Ollama, error) {
	if model = strings.TrimSpace(model); model == "" {
		return nil, errors.New("ollama model is required")
	}

	if host = strings.TrimSpace(host); host == "" {
		host = defaultOllamaHost
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}

	return &Ollama{
		client:    api.NewClient(parsed, http.DefaultClient),
		modelName: model,
	}, nil
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]api.Message, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    o.modelName,
		Messages: messages,
		Stream:   &stream,
	}

	var builder strings.Builder
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("ollama returned empty response")
	}

	return output, nil
}

func (o *Ollama) Model() string { return o.modelName }
