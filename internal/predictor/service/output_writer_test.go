package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/pkg/logger"
	"golang-stock-predictor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) (*OutputWriter, string, string) {
	t.Helper()
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "predictions.json")
	historyPath := filepath.Join(dir, "history.csv")
	return NewOutputWriter(snapshotPath, historyPath, logger.NewNop()), snapshotPath, historyPath
}

func TestWriteSnapshotOverwrites(t *testing.T) {
	writer, snapshotPath, _ := newTestWriter(t)

	first := &entity.PredictionSnapshot{
		LastUpdated: time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC),
		Predictions: []entity.SymbolPrediction{{Symbol: "AAPL", CurrentPrice: 150}},
	}
	require.NoError(t, writer.WriteSnapshot(first))

	second := &entity.PredictionSnapshot{
		LastUpdated: time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC),
		Predictions: []entity.SymbolPrediction{{Symbol: "TSLA", CurrentPrice: 200}},
	}
	require.NoError(t, writer.WriteSnapshot(second))

	content, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "TSLA")
	assert.NotContains(t, string(content), "AAPL")
	// Four-space indentation, trailing newline.
	assert.Contains(t, string(content), "\n    \"predictions\"")
	assert.True(t, strings.HasSuffix(string(content), "\n"))
}

func TestAppendHistoryWritesHeaderOnlyOnce(t *testing.T) {
	writer, _, historyPath := newTestWriter(t)

	record := entity.HistoryRecord{
		Date:                     time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC),
		Symbol:                   "AAPL",
		ActualPrice:              150.1234,
		Sentiment:                entity.SentimentBullish,
		PredictedLow:             utils.ToPointer(148.0),
		PredictedHigh:            utils.ToPointer(152.0),
		YesterdaysPredictedRange: "N/A",
	}

	require.NoError(t, writer.AppendHistory([]entity.HistoryRecord{record}))
	require.NoError(t, writer.AppendHistory([]entity.HistoryRecord{record}))

	rows := readHistory(t, historyPath)
	require.Len(t, rows, 3)
	assert.Equal(t, entity.HistoryHeader, rows[0])
	assert.Equal(t, rows[1], rows[2])
	assert.Equal(t, "2026-08-28", rows[1][0])
	assert.Equal(t, "150.1234", rows[1][2])
}

func TestAppendHistoryEmptyIsNoOp(t *testing.T) {
	writer, _, historyPath := newTestWriter(t)

	require.NoError(t, writer.AppendHistory(nil))

	_, err := os.Stat(historyPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadPreviousSnapshotSkipsFailedRecords(t *testing.T) {
	writer, snapshotPath, _ := newTestWriter(t)

	content := `{
    "last_updated": "2026-08-28T22:00:00Z",
    "predictions": [
        {"symbol": "AAPL", "predicted_range": [148, 152]},
        {"symbol": "TSLA", "error": "chart API returned status 500"}
    ]
}`
	require.NoError(t, os.WriteFile(snapshotPath, []byte(content), 0o644))

	previous := writer.LoadPreviousSnapshot()
	require.Len(t, previous, 1)
	assert.Equal(t, []float64{148, 152}, previous["AAPL"].PredictedRange)
}

func TestLoadPreviousSnapshotMissingOrCorrupt(t *testing.T) {
	writer, snapshotPath, _ := newTestWriter(t)

	assert.Nil(t, writer.LoadPreviousSnapshot())

	require.NoError(t, os.WriteFile(snapshotPath, []byte("{not json"), 0o644))
	assert.Nil(t, writer.LoadPreviousSnapshot())
}
