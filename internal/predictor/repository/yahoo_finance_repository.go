package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/dto"
	"golang-stock-predictor/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// yahooFinanceRepository fetches daily bars from the Yahoo Finance chart API.
// Responses are cached in-process so repeated lookups within one run (or a
// tight retry loop) do not hammer the endpoint.
type yahooFinanceRepository struct {
	cfg           *config.Config
	logger        *logger.Logger
	client        *http.Client
	inmemoryCache *cache.Cache
	limiter       *rate.Limiter
}

// NewYahooFinanceRepository creates a new instance of yahooFinanceRepository.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) (StockDataRepository, error) {
	maxRequests := cfg.YahooFinance.MaxRequestPerMinute
	if maxRequests <= 0 {
		maxRequests = 30
	}
	secondsPerRequest := time.Minute / time.Duration(maxRequests)

	cacheTTL := cfg.YahooFinance.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &yahooFinanceRepository{
		cfg:           cfg,
		logger:        log,
		client:        &http.Client{Timeout: 30 * time.Second},
		inmemoryCache: cache.New(cacheTTL, 2*cacheTTL),
		limiter:       rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}, nil
}

// Get fetches bars for one symbol, serving from cache when possible.
func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	if param.Range == "" {
		param.Range = r.cfg.YahooFinance.Range
	}
	if param.Interval == "" {
		param.Interval = r.cfg.YahooFinance.Interval
	}

	cacheKey := fmt.Sprintf("%s:%s:%s", param.Symbol, param.Range, param.Interval)
	if cached, found := r.inmemoryCache.Get(cacheKey); found {
		return cached.(*dto.StockData), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		r.cfg.YahooFinance.BaseURL, param.Symbol, param.Range, param.Interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	// Yahoo rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chart API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chartResp dto.ChartAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	data, err := flattenChartResponse(param.Symbol, &chartResp)
	if err != nil {
		return nil, err
	}

	r.inmemoryCache.Set(cacheKey, data, cache.DefaultExpiration)

	r.logger.Debug("Fetched stock data",
		logger.StringField("symbol", param.Symbol),
		logger.IntField("bars", len(data.Bars)),
	)

	return data, nil
}

// flattenChartResponse converts the parallel-array chart payload into bars.
// Sessions with a zero close (halts, null padding) are dropped.
func flattenChartResponse(symbol string, resp *dto.ChartAPIResponse) (*dto.StockData, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	data := &dto.StockData{
		Symbol:      symbol,
		MarketPrice: result.Meta.RegularMarketPrice,
	}

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		bar := dto.OHLCV{
			Timestamp: ts,
			Close:     quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		data.Bars = append(data.Bars, bar)
	}

	if len(data.Bars) < 2 {
		return nil, fmt.Errorf("chart API returned insufficient data for %s: %d bars", symbol, len(data.Bars))
	}

	return data, nil
}
