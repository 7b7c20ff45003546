package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/dto"
	"golang-stock-predictor/internal/predictor/repository"
	"golang-stock-predictor/pkg/logger"
	"golang-stock-predictor/pkg/utils"
)

// PredictorService runs the generation stage: one analysis per configured
// symbol, producing the snapshot and history artifacts.
type PredictorService interface {
	Generate(ctx context.Context) (*entity.RunSummary, error)
}

// NewPredictorService creates a new predictor service. News repositories are
// consulted in order; all of them failing degrades the digest, it never fails
// the symbol.
func NewPredictorService(
	cfg *config.Config,
	log *logger.Logger,
	aiRepo repository.AIRepository,
	stockRepo repository.StockDataRepository,
	newsRepos []repository.NewsRepository,
	writer *OutputWriter,
) PredictorService {
	return &predictorService{
		cfg:       cfg,
		logger:    log,
		aiRepo:    aiRepo,
		stockRepo: stockRepo,
		newsRepos: newsRepos,
		writer:    writer,
		now:       utils.TimeNowUTC,
	}
}

type predictorService struct {
	cfg       *config.Config
	logger    *logger.Logger
	aiRepo    repository.AIRepository
	stockRepo repository.StockDataRepository
	newsRepos []repository.NewsRepository
	writer    *OutputWriter
	now       func() time.Time
}

// Generate processes every configured symbol sequentially and writes both
// output files. A per-symbol failure is recorded inline and does not abort
// the run; failing to persist the outputs does.
func (s *predictorService) Generate(ctx context.Context) (*entity.RunSummary, error) {
	previous := s.writer.LoadPreviousSnapshot()

	snapshot := &entity.PredictionSnapshot{
		LastUpdated: s.now(),
	}
	var records []entity.HistoryRecord
	summary := &entity.RunSummary{}

	for i, symbol := range s.cfg.Predictor.Symbols {
		if i > 0 && s.cfg.Predictor.SymbolDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.Predictor.SymbolDelay):
			}
		}

		s.logger.Info("Processing symbol", logger.StringField("symbol", symbol))

		prediction, record, err := s.processSymbol(ctx, symbol, previous)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Error("Failed to process symbol",
				logger.ErrorField(err),
				logger.StringField("symbol", symbol),
			)
			snapshot.Predictions = append(snapshot.Predictions, entity.SymbolPrediction{
				Symbol: symbol,
				Error:  err.Error(),
			})
			summary.SymbolsFailed++
			continue
		}

		snapshot.Predictions = append(snapshot.Predictions, *prediction)
		records = append(records, *record)
		summary.SymbolsProcessed++
	}

	if err := s.writer.WriteSnapshot(snapshot); err != nil {
		return nil, err
	}
	if err := s.writer.AppendHistory(records); err != nil {
		return nil, err
	}

	s.logger.Info("Prediction run complete",
		logger.IntField("processed", summary.SymbolsProcessed),
		logger.IntField("failed", summary.SymbolsFailed),
	)

	return summary, nil
}

func (s *predictorService) processSymbol(ctx context.Context, symbol string, previous map[string]entity.SymbolPrediction) (*entity.SymbolPrediction, *entity.HistoryRecord, error) {
	stockData, err := s.stockRepo.Get(ctx, dto.GetStockDataParam{Symbol: symbol})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get stock data: %w", err)
	}

	newsDigest := s.fetchNews(ctx, symbol)

	analysis, err := s.aiRepo.AnalyzeStock(ctx, symbol, stockData, newsDigest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyze stock: %w", err)
	}

	currentPrice := stockData.LastClose()
	previousClose := stockData.PreviousClose()
	priceChange := currentPrice - previousClose
	priceChangePercent := 0.0
	if previousClose != 0 {
		priceChangePercent = priceChange / previousClose * 100
	}

	accuracyCheck, yesterdaysRange := s.checkAccuracy(symbol, currentPrice, previous)

	prediction := &entity.SymbolPrediction{
		Symbol:             symbol,
		CurrentPrice:       utils.Round2(currentPrice),
		PriceChange:        utils.Round2(priceChange),
		PriceChangePercent: utils.Round2(priceChangePercent),
		Sentiment:          analysis.Sentiment,
		Reasoning:          analysis.Reasoning,
		PredictedLow:       utils.Round2(analysis.PredictedLow),
		PredictedHigh:      utils.Round2(analysis.PredictedHigh),
		PredictedRange:     []float64{utils.Round2(analysis.PredictedLow), utils.Round2(analysis.PredictedHigh)},
		AccuracyCheck:      accuracyCheck,
	}

	record := &entity.HistoryRecord{
		Date:                     s.now(),
		Symbol:                   symbol,
		ActualPrice:              currentPrice,
		PriceChange:              priceChange,
		PriceChangePercent:       priceChangePercent,
		Sentiment:                analysis.Sentiment,
		PredictedLow:             utils.ToPointer(analysis.PredictedLow),
		PredictedHigh:            utils.ToPointer(analysis.PredictedHigh),
		YesterdaysPredictedRange: yesterdaysRange,
	}
	if accuracyCheck != nil {
		record.AccuracyCheckHit = utils.ToPointer(accuracyCheck.Hit)
	}

	return prediction, record, nil
}

// fetchNews tries each news source in order. The digest degrades gracefully:
// news is prompt enrichment, not a hard dependency.
func (s *predictorService) fetchNews(ctx context.Context, symbol string) string {
	var lastErr error
	for _, newsRepo := range s.newsRepos {
		digest, err := newsRepo.GetHeadlines(ctx, symbol)
		if err == nil {
			return digest
		}
		lastErr = err
		if !errors.Is(err, repository.ErrNewsAPIKeyMissing) {
			s.logger.Warn("News source failed",
				logger.ErrorField(err),
				logger.StringField("symbol", symbol),
			)
		}
	}
	if lastErr == nil || errors.Is(lastErr, repository.ErrNewsAPIKeyMissing) {
		return "No recent news found."
	}
	return fmt.Sprintf("Could not fetch news: %v", lastErr)
}

// checkAccuracy reports whether yesterday's predicted range contained today's
// close. Returns nil when no usable previous prediction exists.
func (s *predictorService) checkAccuracy(symbol string, currentPrice float64, previous map[string]entity.SymbolPrediction) (*entity.AccuracyCheck, string) {
	yesterdaysRange := "N/A"

	prev, ok := previous[symbol]
	if !ok || len(prev.PredictedRange) != 2 {
		return nil, yesterdaysRange
	}

	low, high := prev.PredictedRange[0], prev.PredictedRange[1]
	yesterdaysRange = fmt.Sprintf("$%.2f - $%.2f", low, high)

	return &entity.AccuracyCheck{
		YesterdaysPredictedRange: yesterdaysRange,
		TodaysActualPrice:        fmt.Sprintf("$%.2f", currentPrice),
		Hit:                      low <= currentPrice && currentPrice <= high,
	}, yesterdaysRange
}
