package repository

import (
	"context"

	"golang-stock-predictor/internal/entity"

	"gorm.io/gorm"
)

// PipelineRunRepository defines the interface for pipeline run history data
// operations.
type PipelineRunRepository interface {
	Create(ctx context.Context, run *entity.PipelineRun) error
	Update(ctx context.Context, run *entity.PipelineRun) error
	FindByID(ctx context.Context, id uint) (*entity.PipelineRun, error)
	FindAll(ctx context.Context, limit int) ([]entity.PipelineRun, error)
}

// NewPipelineRunRepository creates a new GORM-based pipeline run repository.
func NewPipelineRunRepository(db *gorm.DB) PipelineRunRepository {
	return &pipelineRunRepository{db: db}
}

type pipelineRunRepository struct {
	db *gorm.DB
}

// Create inserts a new pipeline run record.
func (r *pipelineRunRepository) Create(ctx context.Context, run *entity.PipelineRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update persists the mutated fields of a run record.
func (r *pipelineRunRepository) Update(ctx context.Context, run *entity.PipelineRun) error {
	return r.db.WithContext(ctx).Updates(run).Error
}

// FindByID retrieves a pipeline run by its ID.
func (r *pipelineRunRepository) FindByID(ctx context.Context, id uint) (*entity.PipelineRun, error) {
	var run entity.PipelineRun
	if err := r.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// FindAll retrieves pipeline runs, newest first.
func (r *pipelineRunRepository) FindAll(ctx context.Context, limit int) ([]entity.PipelineRun, error) {
	var runs []entity.PipelineRun
	query := r.db.WithContext(ctx).Order("started_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
