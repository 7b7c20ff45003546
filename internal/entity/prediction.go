package entity

import "time"

// Sentiment values the model is allowed to return.
const (
	SentimentBullish = "Bullish"
	SentimentBearish = "Bearish"
	SentimentNeutral = "Neutral"
)

// PredictionSnapshot is the full content of predictions.json. The file is
// overwritten on every run.
type PredictionSnapshot struct {
	LastUpdated time.Time          `json:"last_updated"`
	Predictions []SymbolPrediction `json:"predictions"`
}

// SymbolPrediction is one per-symbol record in the snapshot. A failed symbol
// carries only Symbol and Error; all other fields stay empty.
type SymbolPrediction struct {
	Symbol             string         `json:"symbol"`
	CurrentPrice       float64        `json:"current_price,omitempty"`
	PriceChange        float64        `json:"price_change,omitempty"`
	PriceChangePercent float64        `json:"price_change_percent,omitempty"`
	Sentiment          string         `json:"sentiment,omitempty"`
	Reasoning          string         `json:"reasoning,omitempty"`
	PredictedLow       float64        `json:"predicted_low,omitempty"`
	PredictedHigh      float64        `json:"predicted_high,omitempty"`
	PredictedRange     []float64      `json:"predicted_range,omitempty"`
	AccuracyCheck      *AccuracyCheck `json:"accuracy_check,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// AccuracyCheck compares yesterday's predicted range against today's close.
type AccuracyCheck struct {
	YesterdaysPredictedRange string `json:"yesterdays_predicted_range"`
	TodaysActualPrice        string `json:"todays_actual_price"`
	Hit                      bool   `json:"hit"`
}

// RunSummary is the terminal result of one pipeline run. It is returned to
// the caller and persisted as the run's JSON payload.
type RunSummary struct {
	SymbolsProcessed int    `json:"symbols_processed"`
	SymbolsFailed    int    `json:"symbols_failed"`
	Published        bool   `json:"published"`
	CommitHash       string `json:"commit_hash,omitempty"`
	Message          string `json:"message,omitempty"`
}
