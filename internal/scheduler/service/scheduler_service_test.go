package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/scheduler/config"
	"golang-stock-predictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunRepo struct {
	mu      sync.Mutex
	nextID  uint
	created []*entity.PipelineRun
	updated chan *entity.PipelineRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{updated: make(chan *entity.PipelineRun, 10)}
}

func (f *fakeRunRepo) Create(ctx context.Context, run *entity.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	run.ID = f.nextID
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRunRepo) Update(ctx context.Context, run *entity.PipelineRun) error {
	f.updated <- run
	return nil
}

func (f *fakeRunRepo) FindByID(ctx context.Context, id uint) (*entity.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.created {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRunRepo) FindAll(ctx context.Context, limit int) ([]entity.PipelineRun, error) {
	return nil, nil
}

type blockingPipeline struct {
	release chan struct{}
	summary *entity.RunSummary
	err     error
}

func (p *blockingPipeline) Run(ctx context.Context) (*entity.RunSummary, error) {
	if p.release != nil {
		<-p.release
	}
	return p.summary, p.err
}

func newTestScheduler(t *testing.T, repo *fakeRunRepo, pipeline PipelineRunner) SchedulerService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scheduler.CronExpression = "0 22 * * 1-5"
	cfg.Scheduler.PollingInterval = time.Second
	cfg.Scheduler.LockTTL = time.Minute

	svc, err := NewSchedulerService(cfg, repo, pipeline, nil, nil, logger.NewNop(), "main")
	require.NoError(t, err)
	return svc
}

func awaitUpdate(t *testing.T, repo *fakeRunRepo) *entity.PipelineRun {
	t.Helper()
	select {
	case run := <-repo.updated:
		return run
	case <-time.After(5 * time.Second):
		t.Fatal("run record was never updated")
		return nil
	}
}

func TestNextRunFiresWeekdaysAtTenPMUTC(t *testing.T) {
	svc := newTestScheduler(t, newFakeRunRepo(), &blockingPipeline{})

	// Wednesday morning fires the same evening.
	wednesday := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	next := svc.NextRun(wednesday)
	assert.Equal(t, time.Date(2026, 8, 26, 22, 0, 0, 0, time.UTC), next)

	// After Friday's run the next slot is Monday.
	friday := time.Date(2026, 8, 28, 22, 30, 0, 0, time.UTC)
	next = svc.NextRun(friday)
	assert.Equal(t, time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC), next)

	// Weekends never fire.
	saturday := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	next = svc.NextRun(saturday)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 22, next.Hour())
}

func TestTriggerRunRejectsOverlap(t *testing.T) {
	repo := newFakeRunRepo()
	pipeline := &blockingPipeline{
		release: make(chan struct{}),
		summary: &entity.RunSummary{SymbolsProcessed: 4, Published: true, CommitHash: "abc"},
	}
	svc := newTestScheduler(t, repo, pipeline)

	run, err := svc.TriggerRun(context.Background(), entity.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRunning, run.Status)

	_, err = svc.TriggerRun(context.Background(), entity.TriggerManual)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(pipeline.release)
	updated := awaitUpdate(t, repo)
	assert.Equal(t, entity.StatusCompleted, updated.Status)
	assert.True(t, updated.CompletedAt.Valid)

	// A new trigger is accepted once the run has finished.
	require.Eventually(t, func() bool {
		_, err := svc.TriggerRun(context.Background(), entity.TriggerScheduled)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	awaitUpdate(t, repo)
}

func TestTriggerRunRecordsNoChange(t *testing.T) {
	repo := newFakeRunRepo()
	pipeline := &blockingPipeline{
		summary: &entity.RunSummary{SymbolsProcessed: 4, Published: false},
	}
	svc := newTestScheduler(t, repo, pipeline)

	_, err := svc.TriggerRun(context.Background(), entity.TriggerScheduled)
	require.NoError(t, err)

	updated := awaitUpdate(t, repo)
	assert.Equal(t, entity.StatusNoChange, updated.Status)
	assert.NotEmpty(t, updated.Summary)
}

func TestTriggerRunRecordsFailure(t *testing.T) {
	repo := newFakeRunRepo()
	pipeline := &blockingPipeline{err: errors.New("generate stage failed: boom")}
	svc := newTestScheduler(t, repo, pipeline)

	_, err := svc.TriggerRun(context.Background(), entity.TriggerManual)
	require.NoError(t, err)

	updated := awaitUpdate(t, repo)
	assert.Equal(t, entity.StatusFailed, updated.Status)
	require.True(t, updated.ErrorMessage.Valid)
	assert.Contains(t, updated.ErrorMessage.String, "boom")
}

func TestNewLockTokenIsUniquePerRun(t *testing.T) {
	// Each run proves lock ownership with its own token, so a release after
	// the TTL expired cannot delete a lock reacquired by another process.
	first := newLockToken()
	second := newLockToken()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestUnlockScriptComparesBeforeDelete(t *testing.T) {
	assert.Regexp(t, `get.+KEYS\[1\].+==\s*ARGV\[1\].+del.+KEYS\[1\]`, unlockScriptSrc)
}

func TestNewSchedulerServiceRejectsBadCron(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.CronExpression = "not a cron"

	_, err := NewSchedulerService(cfg, newFakeRunRepo(), &blockingPipeline{}, nil, nil, logger.NewNop(), "main")
	assert.Error(t, err)
}
