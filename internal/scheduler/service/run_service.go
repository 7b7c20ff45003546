package service

import (
	"context"
	"encoding/json"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/scheduler/dto"
	"golang-stock-predictor/internal/scheduler/repository"
	"golang-stock-predictor/pkg/logger"
)

// RunService exposes the persisted run history to the API layer.
type RunService interface {
	GetRunByID(ctx context.Context, id uint) (*dto.RunResponse, error)
	GetAllRuns(ctx context.Context, limit int) ([]dto.RunResponse, error)
}

// NewRunService creates a new run history service.
func NewRunService(runRepo repository.PipelineRunRepository, log *logger.Logger) RunService {
	return &runService{runRepo: runRepo, logger: log}
}

type runService struct {
	runRepo repository.PipelineRunRepository
	logger  *logger.Logger
}

// GetRunByID returns one run by its ID.
func (s *runService) GetRunByID(ctx context.Context, id uint) (*dto.RunResponse, error) {
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRunResponse(run)
	return &resp, nil
}

// GetAllRuns returns runs newest first, capped at limit when positive.
func (s *runService) GetAllRuns(ctx context.Context, limit int) ([]dto.RunResponse, error) {
	runs, err := s.runRepo.FindAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.RunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, toRunResponse(&runs[i]))
	}
	return responses, nil
}

func toRunResponse(run *entity.PipelineRun) dto.RunResponse {
	resp := dto.RunResponse{
		ID:        run.ID,
		Trigger:   string(run.Trigger),
		Status:    string(run.Status),
		StartedAt: run.StartedAt,
	}
	if run.CompletedAt.Valid {
		completedAt := run.CompletedAt.Time
		resp.CompletedAt = &completedAt
	}
	if run.ErrorMessage.Valid {
		resp.ErrorMessage = run.ErrorMessage.String
	}
	if len(run.Summary) > 0 {
		var summary dto.SummaryPayload
		if err := json.Unmarshal(run.Summary, &summary); err == nil {
			resp.Summary = &summary
		}
	}
	return resp
}
