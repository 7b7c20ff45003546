package dto

import "time"

// TriggerRunResponse is returned when a manual run is accepted.
type TriggerRunResponse struct {
	RunID   uint   `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunResponse represents one pipeline run in API responses.
type RunResponse struct {
	ID           uint            `json:"id"`
	Trigger      string          `json:"trigger"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Summary      *SummaryPayload `json:"summary,omitempty"`
}

// SummaryPayload mirrors the run summary persisted alongside a completed run.
type SummaryPayload struct {
	SymbolsProcessed int    `json:"symbols_processed"`
	SymbolsFailed    int    `json:"symbols_failed"`
	Published        bool   `json:"published"`
	CommitHash       string `json:"commit_hash,omitempty"`
	Message          string `json:"message,omitempty"`
}
