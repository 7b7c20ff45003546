package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/dto"
	"golang-stock-predictor/pkg/logger"
	"golang-stock-predictor/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository is an implementation of AIRepository that uses the
// Google Gemini API.
type geminiAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository. The
// genai client is used for token counting only and may be nil, in which case
// token usage is estimated from the prompt length.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	maxRequests := cfg.Gemini.MaxRequestPerMinute
	if maxRequests <= 0 {
		maxRequests = 15
	}
	secondsPerRequest := time.Minute / time.Duration(maxRequests)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	maxTokens := cfg.Gemini.MaxTokenPerMinute
	if maxTokens <= 0 {
		maxTokens = 1_000_000
	}
	tokenLimiter := ratelimit.NewTokenLimiter(maxTokens)

	return &geminiAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// AnalyzeStock asks Gemini for a next-day sentiment and price range. The call
// is retried up to the configured budget; malformed model output counts as a
// failed attempt.
func (r *geminiAIRepository) AnalyzeStock(ctx context.Context, symbol string, data *dto.StockData, newsDigest string) (*dto.StockAnalysisResult, error) {
	prompt := BuildStockAnalysisPrompt(symbol, data, newsDigest)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Gemini.MaxRetries; attempt++ {
		geminiResp, err := r.executeGeminiAIRequest(ctx, prompt)
		if err == nil {
			result, parseErr := r.parseAnalysisResponse(geminiResp)
			if parseErr == nil {
				return result, nil
			}
			err = parseErr
		}

		lastErr = err
		r.logger.Warn("Gemini analysis attempt failed",
			logger.ErrorField(err),
			logger.StringField("symbol", symbol),
			logger.IntField("attempt", attempt),
		)

		if attempt < r.cfg.Gemini.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.Gemini.RetryInterval):
			}
		}
	}

	return nil, fmt.Errorf("gemini analysis failed after %d attempts: %w", r.cfg.Gemini.MaxRetries, lastErr)
}

func (r *geminiAIRepository) executeGeminiAIRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	totalTokens := r.countTokens(ctx, prompt)

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", totalTokens),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, totalTokens); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	// The key travels in a request header, never the URL: transport errors
	// quote the full URL, and those errors end up in run logs.
	apiURL := fmt.Sprintf("%s/%s:generateContent", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", r.cfg.Gemini.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini API: %s", RedactKey(err.Error(), r.cfg.Gemini.APIKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from Gemini API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("url", apiURL),
		)
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, RedactKey(string(body), r.cfg.Gemini.APIKey))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &geminiResp, nil
}

// countTokens uses the genai SDK when available and falls back to a rough
// four-characters-per-token estimate otherwise.
func (r *geminiAIRepository) countTokens(ctx context.Context, prompt string) int {
	if r.genAiClient == nil {
		return len(prompt)/4 + 1
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.logger.Warn("Failed to count tokens, estimating", logger.ErrorField(err))
		return len(prompt)/4 + 1
	}
	return int(tokenResp.TotalTokens)
}

func (r *geminiAIRepository) parseAnalysisResponse(resp *dto.GeminiAPIResponse) (*dto.StockAnalysisResult, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.StockAnalysisResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result from Gemini response: %w", err)
	}

	if err := validateAnalysisResult(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func validateAnalysisResult(result *dto.StockAnalysisResult) error {
	switch result.Sentiment {
	case entity.SentimentBullish, entity.SentimentBearish, entity.SentimentNeutral:
	default:
		return fmt.Errorf("unexpected sentiment %q in Gemini response", result.Sentiment)
	}
	if result.PredictedLow > result.PredictedHigh {
		return fmt.Errorf("predicted range is inverted: %.2f > %.2f", result.PredictedLow, result.PredictedHigh)
	}
	return nil
}

// RedactKey replaces the API key inside s so it can be logged safely.
func RedactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "REDACTED")
}
