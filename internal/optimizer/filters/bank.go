package filters

import (
	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/optimizer"
)

// Config aggregates settings for the built-in filter bank.
type Config struct {
	Keywords     *KeywordCoverageConfig `mapstructure:"keywords"`
	Requirements *RequirementsConfig    `mapstructure:"requirements"`
	Structure    *StructureConfig       `mapstructure:"structure"`
	Length       *LengthConfig          `mapstructure:"length"`
	AIFit        *AIFitConfig           `mapstructure:"ai-fit"`
	// AIFitEnabled opts in to the model-judged fit filter, which costs one
	// extra model call per iteration.
	AIFitEnabled bool `mapstructure:"ai-fit-enabled"`
}

// Bank assembles the built-in filter set. The AI fit filter is appended only
// when enabled and a generator is available.
func Bank(cfg *Config, gen llm.Generator, logger *zap.Logger) []optimizer.Filter {
	if cfg == nil {
		cfg = &Config{}
	}

	bank := []optimizer.Filter{
		NewKeywordCoverage(cfg.Keywords),
		NewRequirementsRelevance(cfg.Requirements),
		NewStructure(cfg.Structure),
		NewLengthBudget(cfg.Length),
	}

	if cfg.AIFitEnabled && gen != nil {
		bank = append(bank, NewAIFit(gen, cfg.AIFit, logger))
	}

	return bank
}
