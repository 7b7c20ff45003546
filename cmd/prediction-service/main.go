package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/service"
	"golang-stock-predictor/internal/publisher"
	"golang-stock-predictor/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate predictions and publish the results",
	Run:   runPipeline,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate predictions without publishing",
	Run:   runGenerate,
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Commit and push the current output files if they changed",
	Run:   runPublish,
}

func runPipeline(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustLoad()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Prediction Service", logger.Field("name", cfg.App.Name))

	pipeline, err := service.BuildPipeline(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to build pipeline", logger.ErrorField(err))
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		appLogger.Fatal("Run failed", logger.ErrorField(err))
	}

	appLogger.Info("Run finished",
		logger.IntField("processed", summary.SymbolsProcessed),
		logger.IntField("failed", summary.SymbolsFailed),
		logger.Field("published", summary.Published),
	)
}

func runGenerate(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustLoad()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Prediction Service", logger.Field("name", cfg.App.Name))

	predictor, err := service.BuildPredictor(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to build predictor", logger.ErrorField(err))
	}

	summary, err := predictor.Generate(ctx)
	if err != nil {
		appLogger.Fatal("Generate failed", logger.ErrorField(err))
	}

	appLogger.Info("Generate finished",
		logger.IntField("processed", summary.SymbolsProcessed),
		logger.IntField("failed", summary.SymbolsFailed),
	)
}

func runPublish(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustLoad()
	defer func() { _ = appLogger.Sync() }()

	runner := publisher.NewGitRunner(cfg.Publisher.RepoDir, appLogger)
	pub := publisher.New(publisher.Options{
		RepoDir:       cfg.Publisher.RepoDir,
		Paths:         []string{cfg.Predictor.SnapshotPath, cfg.Predictor.HistoryPath},
		BotName:       cfg.Publisher.BotName,
		BotEmail:      cfg.Publisher.BotEmail,
		CommitMessage: cfg.Publisher.CommitMessage,
		Remote:        cfg.Publisher.Remote,
		Branch:        cfg.Publisher.Branch,
	}, runner, appLogger)

	result, err := pub.Publish(ctx)
	if err != nil {
		appLogger.Fatal("Publish failed", logger.ErrorField(err))
	}

	appLogger.Info("Publish finished",
		logger.Field("changed", result.Changed),
		logger.StringField("commit", result.CommitHash),
	)
}

func mustLoad() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func main() {
	rootCmd := &cobra.Command{Use: "prediction-service"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-predictor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd, generateCmd, publishCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing prediction-service CLI: %s\n", err)
		os.Exit(1)
	}
}
