package service

import (
	"context"
	"fmt"
	"path/filepath"

	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/repository"
	"golang-stock-predictor/internal/publisher"
	"golang-stock-predictor/pkg/logger"

	"google.golang.org/genai"
)

// BuildPredictor wires the generate stage from configuration.
func BuildPredictor(ctx context.Context, cfg *config.Config, log *logger.Logger) (PredictorService, error) {
	aiRepo, err := buildAIRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	stockRepo, err := repository.NewYahooFinanceRepository(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Yahoo Finance repository: %w", err)
	}

	// NewsAPI first, Yahoo RSS as fallback when the key is absent or the
	// request fails.
	newsRepos := []repository.NewsRepository{
		repository.NewNewsAPIRepository(cfg, log),
		repository.NewRSSNewsRepository(cfg, log),
	}

	writer := NewOutputWriter(
		resolveOutputPath(cfg.Publisher.RepoDir, cfg.Predictor.SnapshotPath),
		resolveOutputPath(cfg.Publisher.RepoDir, cfg.Predictor.HistoryPath),
		log,
	)
	return NewPredictorService(cfg, log, aiRepo, stockRepo, newsRepos, writer), nil
}

// resolveOutputPath anchors a configured output path to the publish
// repository, so the writer and the publisher always address the same file.
// Absolute paths are taken as-is.
func resolveOutputPath(repoDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoDir, path)
}

// BuildPipeline wires the full generate-and-publish pipeline from
// configuration. Both the one-shot CLI and the scheduling daemon use it.
func BuildPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (PipelineService, error) {
	predictor, err := BuildPredictor(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// Output paths are expected to live inside the publish repository and be
	// relative to it.
	runner := publisher.NewGitRunner(cfg.Publisher.RepoDir, log)
	pub := publisher.New(publisher.Options{
		RepoDir:       cfg.Publisher.RepoDir,
		Paths:         []string{cfg.Predictor.SnapshotPath, cfg.Predictor.HistoryPath},
		BotName:       cfg.Publisher.BotName,
		BotEmail:      cfg.Publisher.BotEmail,
		CommitMessage: cfg.Publisher.CommitMessage,
		Remote:        cfg.Publisher.Remote,
		Branch:        cfg.Publisher.Branch,
	}, runner, log)

	return NewPipelineService(predictor, pub, log), nil
}

func buildAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.AIRepository, error) {
	switch cfg.AI.Provider {
	case "", "gemini":
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini AI client: %w", err)
		}
		return repository.NewGeminiAIRepository(cfg, log, genAiClient)
	default:
		return nil, fmt.Errorf("invalid AI provider %q", cfg.AI.Provider)
	}
}
