package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/pkg/logger"

	"golang-stock-predictor/internal/predictor/dto"
)

// ErrNewsAPIKeyMissing signals that the NewsAPI repository is unconfigured
// and the caller should fall through to the next news source.
var ErrNewsAPIKeyMissing = errors.New("news api key is not configured")

// newsAPIRepository fetches recent headlines from NewsAPI. The key travels in
// a request header, never in the URL, so it cannot leak through logs.
type newsAPIRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	client *http.Client
}

// NewNewsAPIRepository creates a new instance of newsAPIRepository.
func NewNewsAPIRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &newsAPIRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetHeadlines returns a bullet list of the most recent headlines mentioning
// the symbol.
func (r *newsAPIRepository) GetHeadlines(ctx context.Context, symbol string) (string, error) {
	if r.cfg.News.APIKey == "" {
		return "", ErrNewsAPIKeyMissing
	}

	query := url.Values{}
	query.Set("q", symbol)
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(r.cfg.News.PageSize))

	apiURL := fmt.Sprintf("%s/everything?%s", r.cfg.News.BaseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create news request: %w", err)
	}
	req.Header.Set("X-Api-Key", r.cfg.News.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var newsResp dto.NewsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&newsResp); err != nil {
		return "", fmt.Errorf("failed to decode news response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || newsResp.Status != "ok" {
		return "", fmt.Errorf("news API returned status %d (%s): %s", resp.StatusCode, newsResp.Code, newsResp.Message)
	}

	if len(newsResp.Articles) == 0 {
		return "No recent news found.", nil
	}

	var digest strings.Builder
	for _, article := range newsResp.Articles {
		digest.WriteString("- ")
		digest.WriteString(article.Title)
		digest.WriteString("\n")
	}

	r.logger.Debug("Fetched headlines",
		logger.StringField("symbol", symbol),
		logger.IntField("count", len(newsResp.Articles)),
	)

	return strings.TrimRight(digest.String(), "\n"), nil
}
