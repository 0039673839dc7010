package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akarpov/hr-breaker/internal/history"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/logger"
	"github.com/akarpov/hr-breaker/internal/optimizer"
	"github.com/akarpov/hr-breaker/internal/optimizer/filters"
	"github.com/akarpov/hr-breaker/internal/render"
	"github.com/akarpov/hr-breaker/internal/resume"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var writePrompt = promptui.Select{
	Label: "Write the tailored resume to disk?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single resume optimization against a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "path to the resume file (markdown or html)")
	runCmd.Flags().String("job-url", "", "url of the job posting to fetch and parse")
	runCmd.Flags().String("job-file", "", "path to a file with the job posting text")
	runCmd.Flags().IntP("max-iterations", "n", 0, "override the configured iteration cap")
	runCmd.Flags().Bool("sequential", false, "evaluate filters one by one instead of in parallel")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before writing the artifact")

	runCmd.MarkFlagRequired("resume")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hr-breaker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	gen, err := buildGenerator(ctx, config.Generator, logger)
	if err != nil {
		logger.Fatal("building generator", zap.Error(err))
	}

	source, err := loadResume(cmd)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	posting, err := loadPosting(ctx, cmd, config, gen, logger)
	if err != nil {
		logger.Fatal("loading job posting", zap.Error(err))
	}

	logger.Info("job posting ready",
		zap.String("job", posting.Label()),
		zap.Int("keywords", len(posting.Keywords)),
		zap.Int("requirements", len(posting.Requirements)),
	)

	result, err := optimize(ctx, cmd, config, gen, source, posting, logger)
	if err != nil {
		if result != nil && result.Status == optimizer.StatusCanceled {
			logger.Info("exiting", zap.String("reason", "canceled"))
			return
		}
		logger.Fatal("optimization failed", zap.Error(err))
	}

	switch result.Status {
	case optimizer.StatusAccepted:
		logger.Info("resume accepted",
			zap.Int("iterations", result.Iterations),
			zap.Duration("took", result.Duration),
		)
	default:
		logger.Warn("no candidate passed all filters",
			zap.Int("iterations", result.Iterations),
			zap.Strings("failed_filters", result.Verdict.FailedNames()),
		)
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := writePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	filename, err := writeArtifact(ctx, config, gen, source, posting, result, logger)
	if err != nil {
		logger.Fatal("writing artifact", zap.Error(err))
	}

	logger.Info("artifact written",
		zap.String("filename", filename),
		zap.String("dir", config.OutputDir),
	)
}

func loadResume(cmd *cobra.Command) (*resume.Source, error) {
	path := cmd.Flag("resume").Value.String()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return resume.NewSource(string(content))
}

// loadPosting builds a structured posting from either a url or a local file.
func loadPosting(ctx context.Context, cmd *cobra.Command, config *Config, gen llm.Generator, logger *zap.Logger) (*job.Posting, error) {
	url := strings.TrimSpace(cmd.Flag("job-url").Value.String())
	file := strings.TrimSpace(cmd.Flag("job-file").Value.String())

	var text string
	switch {
	case url != "" && file != "":
		return nil, fmt.Errorf("--job-url and --job-file are mutually exclusive")
	case url != "":
		fetcher := job.NewFetcher(config.UserAgent)
		fetched, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		text = fetched
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		text = string(content)
	default:
		return nil, fmt.Errorf("either --job-url or --job-file is required")
	}

	return job.NewParser(gen, logger).Parse(ctx, text)
}

func optimize(ctx context.Context, cmd *cobra.Command, config *Config, gen llm.Generator, source *resume.Source, posting *job.Posting, logger *zap.Logger) (*optimizer.RunResult, error) {
	filtersCfg, err := filterConfig(config)
	if err != nil {
		return nil, err
	}

	bank := filters.Bank(filtersCfg, gen, logger)
	registry := optimizer.NewRegistry(bank, logger)

	logger.Debug("filters prepared", zap.Strings("filters", registry.Names()))

	ocfg := optimizerConfig(config)
	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		ocfg.MaxIterations = n
	}
	if seq, _ := cmd.Flags().GetBool("sequential"); seq {
		ocfg.Parallel = false
	}

	drafter := llm.NewDrafter(gen, config.Generator.MaxLogLength, logger)

	orch, err := optimizer.New(drafter, registry, ocfg, logger)
	if err != nil {
		return nil, err
	}

	return orch.Run(ctx, source.Content, posting)
}

// writeArtifact renders the accepted candidate and files it under the
// output directory alongside the run history.
func writeArtifact(ctx context.Context, config *Config, gen llm.Generator, source *resume.Source, posting *job.Posting, result *optimizer.RunResult, logger *zap.Logger) (string, error) {
	artifact, err := render.Render(result.Candidate)
	if err != nil {
		return "", fmt.Errorf("rendering: %w", err)
	}
	for _, warning := range artifact.Warnings {
		logger.Warn("render warning", zap.String("warning", warning))
	}

	first, last, err := resume.ExtractName(ctx, gen, source.Content)
	if err != nil {
		logger.Warn("could not extract candidate name", zap.Error(err))
	}

	store, err := history.Open(config.OutputDir)
	if err != nil {
		return "", fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	filename, err := store.WriteArtifact(first, last, posting.Company, posting.Title, artifact.HTML)
	if err != nil {
		return "", err
	}

	record := &history.Record{
		Filename:       filename,
		Company:        posting.Company,
		JobTitle:       posting.Title,
		FirstName:      first,
		LastName:       last,
		SourceChecksum: source.Checksum(),
	}
	if err := store.Save(ctx, record); err != nil {
		logger.Warn("saving history record", zap.Error(err))
	}

	return filename, nil
}
