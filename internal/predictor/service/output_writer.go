package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/pkg/logger"
)

// OutputWriter owns the two published artifacts: the snapshot is rewritten
// whole every run, the history log only ever grows.
type OutputWriter struct {
	snapshotPath string
	historyPath  string
	logger       *logger.Logger
}

// NewOutputWriter creates an OutputWriter for the given paths.
func NewOutputWriter(snapshotPath, historyPath string, log *logger.Logger) *OutputWriter {
	return &OutputWriter{
		snapshotPath: snapshotPath,
		historyPath:  historyPath,
		logger:       log,
	}
}

// LoadPreviousSnapshot reads the last run's snapshot, keyed by symbol, for
// the accuracy check. A missing or unreadable snapshot is not an error; the
// run simply starts fresh. Failed symbol records are skipped.
func (w *OutputWriter) LoadPreviousSnapshot() map[string]entity.SymbolPrediction {
	content, err := os.ReadFile(w.snapshotPath)
	if err != nil {
		w.logger.Info("Previous snapshot not found, starting fresh")
		return nil
	}

	var snapshot entity.PredictionSnapshot
	if err := json.Unmarshal(content, &snapshot); err != nil {
		w.logger.Warn("Previous snapshot is unreadable, starting fresh", logger.ErrorField(err))
		return nil
	}

	previous := make(map[string]entity.SymbolPrediction, len(snapshot.Predictions))
	for _, prediction := range snapshot.Predictions {
		if prediction.Symbol == "" || prediction.Error != "" {
			continue
		}
		previous[prediction.Symbol] = prediction
	}
	return previous
}

// WriteSnapshot overwrites the snapshot file atomically.
func (w *OutputWriter) WriteSnapshot(snapshot *entity.PredictionSnapshot) error {
	content, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := w.snapshotPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(content, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, w.snapshotPath); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// AppendHistory appends one row per record to the history log, creating the
// file with its header row first when needed.
func (w *OutputWriter) AppendHistory(records []entity.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	if dir := filepath.Dir(w.historyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	_, statErr := os.Stat(w.historyPath)
	writeHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(w.historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(entity.HistoryHeader); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	return nil
}
