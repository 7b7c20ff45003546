package repository

import (
	"context"

	"golang-stock-predictor/internal/predictor/dto"
)

// AIRepository produces a next-day analysis for one symbol.
type AIRepository interface {
	AnalyzeStock(ctx context.Context, symbol string, data *dto.StockData, newsDigest string) (*dto.StockAnalysisResult, error)
}

// StockDataRepository fetches historical bars for one symbol.
type StockDataRepository interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
}

// NewsRepository fetches a plain-text digest of recent headlines for one
// symbol. Implementations are tried in order; a failure falls through to the
// next one.
type NewsRepository interface {
	GetHeadlines(ctx context.Context, symbol string) (string, error)
}
