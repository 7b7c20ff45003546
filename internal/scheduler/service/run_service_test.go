package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestGetRunByIDMapsAllFields(t *testing.T) {
	repo := newFakeRunRepo()
	started := time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Minute)

	require.NoError(t, repo.Create(context.Background(), &entity.PipelineRun{
		Trigger:     entity.TriggerScheduled,
		Status:      entity.StatusCompleted,
		StartedAt:   started,
		CompletedAt: sql.NullTime{Time: completed, Valid: true},
		Summary:     datatypes.JSON(`{"symbols_processed":4,"symbols_failed":0,"published":true,"commit_hash":"abc123"}`),
	}))

	svc := NewRunService(repo, logger.NewNop())
	resp, err := svc.GetRunByID(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, string(entity.TriggerScheduled), resp.Trigger)
	assert.Equal(t, string(entity.StatusCompleted), resp.Status)
	assert.Equal(t, started, resp.StartedAt)
	require.NotNil(t, resp.CompletedAt)
	assert.Equal(t, completed, *resp.CompletedAt)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 4, resp.Summary.SymbolsProcessed)
	assert.True(t, resp.Summary.Published)
	assert.Equal(t, "abc123", resp.Summary.CommitHash)
}

func TestGetRunByIDFailedRunCarriesError(t *testing.T) {
	repo := newFakeRunRepo()
	require.NoError(t, repo.Create(context.Background(), &entity.PipelineRun{
		Trigger:      entity.TriggerManual,
		Status:       entity.StatusFailed,
		StartedAt:    time.Now().UTC(),
		ErrorMessage: sql.NullString{String: "publish stage failed: remote rejected", Valid: true},
	}))

	svc := NewRunService(repo, logger.NewNop())
	resp, err := svc.GetRunByID(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "publish stage failed: remote rejected", resp.ErrorMessage)
	assert.Nil(t, resp.CompletedAt)
	assert.Nil(t, resp.Summary)
}
