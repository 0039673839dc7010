package llm

import (
	"context"
	"fmt"
	"strings"
)

// Providers supported by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// ProviderConfig selects and configures a concrete Generator implementation.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL points openai-compatible providers at an alternative endpoint.
	BaseURL string
	// Host is the Ollama server address.
	Host string
}

// New builds a Generator for the configured provider. An empty provider
// defaults to Gemini.
func New(ctx context.Context, cfg *ProviderConfig) (Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("generator configuration is required")
	}

	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderAnthropic:
		return NewAnthropic(cfg.APIKey, cfg.Model)
	case ProviderOllama:
		return NewOllama(cfg.Host, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}
}
