package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/scheduler/config"
	"golang-stock-predictor/internal/scheduler/repository"
	"golang-stock-predictor/pkg/common"
	"golang-stock-predictor/pkg/logger"
	"golang-stock-predictor/pkg/telegram"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// unlockScript deletes the run lock only while it still holds this run's
// token. After the TTL expires another process may have reacquired the key; a
// plain DEL here would release that holder's lock.
const unlockScriptSrc = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

var unlockScript = redis.NewScript(unlockScriptSrc)

var (
	// ErrRunInProgress signals that this process is already executing a run.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	// ErrLockHeld signals that another process holds the run lock.
	ErrLockHeld = errors.New("run lock is held by another process")
)

// PipelineRunner is the run-to-completion pipeline the scheduler launches.
type PipelineRunner interface {
	Run(ctx context.Context) (*entity.RunSummary, error)
}

// SchedulerService owns the cron loop and the single-run-at-a-time guarantee.
type SchedulerService interface {
	Start(ctx context.Context)
	TriggerRun(ctx context.Context, trigger entity.TriggerKind) (*entity.PipelineRun, error)
	NextRun(after time.Time) time.Time
}

// NewSchedulerService creates a new scheduler service. redisClient may be nil,
// which disables the cross-process lock and leaves only the in-process guard.
func NewSchedulerService(
	cfg *config.Config,
	runRepo repository.PipelineRunRepository,
	pipeline PipelineRunner,
	redisClient *redis.Client,
	notifier telegram.Notifier,
	log *logger.Logger,
	lockKey string,
) (SchedulerService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cfg.Scheduler.CronExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Scheduler.CronExpression, err)
	}

	return &schedulerService{
		cfg:         cfg,
		runRepo:     runRepo,
		pipeline:    pipeline,
		redisClient: redisClient,
		notifier:    notifier,
		logger:      log,
		schedule:    schedule,
		lockKey:     fmt.Sprintf(common.RedisKeyRunLock, lockKey),
	}, nil
}

type schedulerService struct {
	cfg         *config.Config
	runRepo     repository.PipelineRunRepository
	pipeline    PipelineRunner
	redisClient *redis.Client
	notifier    telegram.Notifier
	logger      *logger.Logger
	schedule    cron.Schedule
	lockKey     string
	lockToken   string
	running     atomic.Bool
}

// Start begins the polling loop that fires scheduled runs. It blocks until
// ctx is cancelled.
func (s *schedulerService) Start(ctx context.Context) {
	next := s.schedule.Next(time.Now().UTC())
	s.logger.Info("Scheduler started",
		logger.StringField("cron", s.cfg.Scheduler.CronExpression),
		logger.StringField("next_run", next.Format(time.RFC3339)),
	)

	ticker := time.NewTicker(s.cfg.Scheduler.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Before(next) {
				continue
			}
			next = s.schedule.Next(now)

			if _, err := s.TriggerRun(ctx, entity.TriggerScheduled); err != nil {
				s.logger.Error("Scheduled run not started", logger.ErrorField(err))
			}
			s.logger.Info("Next scheduled run", logger.StringField("next_run", next.Format(time.RFC3339)))
		}
	}
}

// NextRun returns the first scheduled fire time strictly after the given
// instant.
func (s *schedulerService) NextRun(after time.Time) time.Time {
	return s.schedule.Next(after)
}

// TriggerRun starts one pipeline run if none is active. The run executes
// asynchronously; the returned record is the RUNNING row it will update.
// Overlapping triggers fail fast with ErrRunInProgress or ErrLockHeld, they
// never queue.
func (s *schedulerService) TriggerRun(ctx context.Context, trigger entity.TriggerKind) (*entity.PipelineRun, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	if err := s.acquireLock(ctx); err != nil {
		s.running.Store(false)
		s.recordRejected(ctx, trigger, err)
		return nil, err
	}

	run := &entity.PipelineRun{
		Trigger:   trigger,
		Status:    entity.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.releaseLock(ctx)
		s.running.Store(false)
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	go s.executeRun(context.WithoutCancel(ctx), run)

	return run, nil
}

func (s *schedulerService) executeRun(ctx context.Context, run *entity.PipelineRun) {
	defer func() {
		s.releaseLock(ctx)
		s.running.Store(false)
	}()

	s.logger.Info("Pipeline run started",
		logger.Field("run_id", run.ID),
		logger.StringField("trigger", string(run.Trigger)),
	)

	summary, err := s.pipeline.Run(ctx)

	run.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err != nil {
		run.Status = entity.StatusFailed
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		s.logger.Error("Pipeline run failed", logger.ErrorField(err), logger.Field("run_id", run.ID))
		s.notifyFailure(run, err)
	} else {
		run.Status = entity.StatusCompleted
		if !summary.Published {
			run.Status = entity.StatusNoChange
		}
		if payload, marshalErr := json.Marshal(summary); marshalErr == nil {
			run.Summary = payload
		}
		s.logger.Info("Pipeline run completed",
			logger.Field("run_id", run.ID),
			logger.StringField("status", string(run.Status)),
		)
		s.notifySuccess(run, summary)
	}

	if updateErr := s.runRepo.Update(ctx, run); updateErr != nil {
		s.logger.Error("Failed to update run record", logger.ErrorField(updateErr), logger.Field("run_id", run.ID))
	}
}

// acquireLock takes the cross-process run lock under a fresh per-run token.
// The TTL bounds how long a crashed holder can block later runs.
func (s *schedulerService) acquireLock(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}
	token := newLockToken()
	acquired, err := s.redisClient.SetNX(ctx, s.lockKey, token, s.cfg.Scheduler.LockTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return ErrLockHeld
	}
	s.lockToken = token
	return nil
}

func (s *schedulerService) releaseLock(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := unlockScript.Run(ctx, s.redisClient, []string{s.lockKey}, s.lockToken).Err(); err != nil {
		s.logger.Error("Failed to release run lock", logger.ErrorField(err))
	}
}

// newLockToken returns a value unique to one run, used to prove ownership of
// the run lock at release time.
func newLockToken() string {
	return uuid.NewString()
}

func (s *schedulerService) recordRejected(ctx context.Context, trigger entity.TriggerKind, cause error) {
	now := time.Now().UTC()
	run := &entity.PipelineRun{
		Trigger:      trigger,
		Status:       entity.StatusRejected,
		StartedAt:    now,
		CompletedAt:  sql.NullTime{Time: now, Valid: true},
		ErrorMessage: sql.NullString{String: cause.Error(), Valid: true},
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record rejected run", logger.ErrorField(err))
	}
}

func (s *schedulerService) notifyFailure(run *entity.PipelineRun, cause error) {
	if s.notifier == nil {
		return
	}
	msg := telegram.FormatRunFailureMessage(run.StartedAt, string(run.Trigger), cause.Error())
	if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Error("Failed to send failure notification", logger.ErrorField(err))
	}
}

func (s *schedulerService) notifySuccess(run *entity.PipelineRun, summary *entity.RunSummary) {
	if s.notifier == nil || !s.cfg.Telegram.NotifyOnSuccess {
		return
	}
	msg := telegram.FormatRunSummaryMessage(run.StartedAt, string(run.Trigger),
		summary.SymbolsProcessed, summary.SymbolsFailed, summary.Published, summary.CommitHash)
	if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Error("Failed to send summary notification", logger.ErrorField(err))
	}
}
