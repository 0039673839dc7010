package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/optimizer"
	"github.com/akarpov/hr-breaker/internal/optimizer/filters"
	"github.com/akarpov/hr-breaker/internal/secrets"
)

const (
	app = "hr-breaker"

	defaultOutputDir     = "generated"
	defaultMaxIterations = 5
)

type Config struct {
	OutputDir string           `mapstructure:"output-dir"`
	UserAgent string           `mapstructure:"user-agent"`
	Optimizer *OptimizerConfig `mapstructure:"optimizer" validate:"required"`
	Generator *GeneratorConfig `mapstructure:"generator" validate:"required"`
	Filters   map[string]any   `mapstructure:"filters"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type OptimizerConfig struct {
	MaxIterations int  `mapstructure:"max-iterations" validate:"gte=1"`
	Parallel      bool `mapstructure:"parallel"`
	FeedbackCap   int  `mapstructure:"feedback-cap" validate:"gte=0"`
}

type GeneratorConfig struct {
	Provider     string `mapstructure:"provider" validate:"omitempty,oneof=gemini openai anthropic ollama"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	BaseURL      string `mapstructure:"base-url"`
	Host         string `mapstructure:"host"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hr-breaker tailors a resume to a job posting and validates the result against a bank of quality filters",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hr-breaker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; flags and defaults carry a bare run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.OutputDir == "" {
		config.OutputDir = defaultOutputDir
	}
	if config.Optimizer == nil {
		config.Optimizer = &OptimizerConfig{Parallel: true}
	}
	if config.Optimizer.MaxIterations == 0 {
		config.Optimizer.MaxIterations = defaultMaxIterations
	}
	if config.Generator == nil {
		config.Generator = &GeneratorConfig{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// filterConfig decodes the free-form filters section into typed settings.
func filterConfig(config *Config) (*filters.Config, error) {
	cfg := &filters.Config{}
	if len(config.Filters) == 0 {
		return cfg, nil
	}
	if err := mapstructure.Decode(config.Filters, cfg); err != nil {
		return nil, fmt.Errorf("invalid filters configuration: %w", err)
	}
	return cfg, nil
}

func optimizerConfig(config *Config) optimizer.Config {
	return optimizer.Config{
		MaxIterations: config.Optimizer.MaxIterations,
		Parallel:      config.Optimizer.Parallel,
		FeedbackCap:   config.Optimizer.FeedbackCap,
	}
}

// buildGenerator resolves the provider credentials and constructs the
// configured generator. Ollama runs locally and needs no key.
func buildGenerator(ctx context.Context, config *GeneratorConfig, logger *zap.Logger) (llm.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider == "" {
		provider = llm.ProviderGemini
	}

	var apiKey string
	if provider != llm.ProviderOllama {
		key, err := secrets.Load(secrets.Source{
			Name:  provider + " api key",
			Value: config.APIKey,
			File:  config.APIKeyFile,
			Env:   apiKeyEnv(provider),
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set generator.api-key-file or %s)", err, apiKeyEnv(provider))
		}
		apiKey = key
	}

	gen, err := llm.New(ctx, &llm.ProviderConfig{
		Provider: provider,
		Model:    config.Model,
		APIKey:   apiKey,
		BaseURL:  config.BaseURL,
		Host:     config.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("building %s generator: %w", provider, err)
	}

	logger.Debug("generator configured",
		zap.String("provider", provider),
		zap.String("model", gen.Model()),
	)
	return gen, nil
}

func apiKeyEnv(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
