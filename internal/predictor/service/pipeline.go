package service

import (
	"context"
	"fmt"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/publisher"
	"golang-stock-predictor/pkg/logger"
)

// PipelineService runs the full generate-then-publish sequence. The publish
// stage never starts when generation fails.
type PipelineService interface {
	Run(ctx context.Context) (*entity.RunSummary, error)
}

// NewPipelineService creates a pipeline over the given stages.
func NewPipelineService(predictor PredictorService, pub publisher.Publisher, log *logger.Logger) PipelineService {
	return &pipelineService{
		predictor: predictor,
		publisher: pub,
		logger:    log,
	}
}

type pipelineService struct {
	predictor PredictorService
	publisher publisher.Publisher
	logger    *logger.Logger
}

func (s *pipelineService) Run(ctx context.Context) (*entity.RunSummary, error) {
	summary, err := s.predictor.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate stage failed: %w", err)
	}

	result, err := s.publisher.Publish(ctx)
	if err != nil {
		return nil, fmt.Errorf("publish stage failed: %w", err)
	}

	summary.Published = result.Changed
	summary.CommitHash = result.CommitHash
	if result.Changed {
		summary.Message = "predictions updated and published"
	} else {
		summary.Message = "no changes in prediction output"
	}

	return summary, nil
}
