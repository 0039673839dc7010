package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/akarpov/hr-breaker/internal/history"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/logger"
	"github.com/akarpov/hr-breaker/internal/metrics"
	"github.com/akarpov/hr-breaker/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultListen = ":8000"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hr-breaker API server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default "+defaultListen+")")
}

func serve(cmd *cobra.Command) {
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

	logger.Info("starting the hr-breaker api", zap.String("version", version))

	// The server runs without a generator when no credentials are
	// configured; generation endpoints answer 503 until one is set.
	var gen llm.Generator
	if g, err := buildGenerator(ctx, config.Generator, logger); err != nil {
		logger.Warn("running without a generator", zap.Error(err))
	} else {
		gen = g
	}

	store, err := history.Open(config.OutputDir)
	if err != nil {
		logger.Fatal("opening history store", zap.Error(err))
	}
	defer store.Close()

	filtersCfg, err := filterConfig(config)
	if err != nil {
		logger.Fatal("reading filters configuration", zap.Error(err))
	}

	addr := cmd.Flag("listen").Value.String()
	if addr == "" && config.Server != nil {
		addr = config.Server.Listen
	}
	if addr == "" {
		addr = defaultListen
	}

	srv, err := server.New(&server.Config{
		Addr:         addr,
		Optimizer:    optimizerConfig(config),
		Filters:      filtersCfg,
		MaxLogLength: config.Generator.MaxLogLength,
	}, gen, job.NewFetcher(config.UserAgent), store, metrics.New(), logger)
	if err != nil {
		logger.Fatal("building server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
