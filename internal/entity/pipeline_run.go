package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// RunStatus is the terminal (or in-flight) state of a pipeline run.
type RunStatus string

const (
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusNoChange  RunStatus = "NO_CHANGE"
	StatusFailed    RunStatus = "FAILED"
	StatusRejected  RunStatus = "REJECTED"
)

// TriggerKind records what started a run.
type TriggerKind string

const (
	TriggerScheduled TriggerKind = "SCHEDULED"
	TriggerManual    TriggerKind = "MANUAL"
)

// PipelineRun is the persisted history of one end-to-end pipeline execution.
type PipelineRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Trigger      TriggerKind    `gorm:"not null" json:"trigger"`
	Status       RunStatus      `gorm:"not null" json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	ErrorMessage sql.NullString `json:"error_message"`
	Summary      datatypes.JSON `gorm:"type:jsonb" json:"summary"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
