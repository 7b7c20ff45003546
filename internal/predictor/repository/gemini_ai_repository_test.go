package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/internal/predictor/dto"
	"golang-stock-predictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiTestConfig(baseURL string) *config.Config {
	return &config.Config{
		Gemini: config.Gemini{
			APIKey:        "test-key",
			BaseURL:       baseURL,
			Model:         "gemini-1.5-flash-latest",
			MaxRetries:    3,
			RetryInterval: time.Millisecond,
		},
	}
}

func geminiResponse(text string) dto.GeminiAPIResponse {
	var resp dto.GeminiAPIResponse
	resp.Candidates = []dto.Candidate{{}}
	resp.Candidates[0].Content.Parts = []dto.Part{{Text: text}}
	return resp
}

func testStockData() *dto.StockData {
	return &dto.StockData{
		Symbol: "AAPL",
		Bars: []dto.OHLCV{
			{Timestamp: 1, Open: 148, High: 151, Low: 147, Close: 149, Volume: 1000},
			{Timestamp: 2, Open: 149, High: 152, Low: 148, Close: 150, Volume: 1100},
		},
	}
}

func TestAnalyzeStockParsesFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NotContains(t, r.URL.String(), "test-key")

		text := "```json\n{\"sentiment\": \"Bullish\", \"reasoning\": \"momentum\", \"predicted_low\": 148.5, \"predicted_high\": 155.2}\n```"
		require.NoError(t, json.NewEncoder(w).Encode(geminiResponse(text)))
	}))
	defer server.Close()

	repo, err := NewGeminiAIRepository(newGeminiTestConfig(server.URL), logger.NewNop(), nil)
	require.NoError(t, err)

	result, err := repo.AnalyzeStock(context.Background(), "AAPL", testStockData(), "No recent news found.")
	require.NoError(t, err)

	assert.Equal(t, entity.SentimentBullish, result.Sentiment)
	assert.Equal(t, "momentum", result.Reasoning)
	assert.Equal(t, 148.5, result.PredictedLow)
	assert.Equal(t, 155.2, result.PredictedHigh)
}

func TestAnalyzeStockRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		text := `{"sentiment": "Neutral", "reasoning": "flat", "predicted_low": 100, "predicted_high": 105}`
		require.NoError(t, json.NewEncoder(w).Encode(geminiResponse(text)))
	}))
	defer server.Close()

	repo, err := NewGeminiAIRepository(newGeminiTestConfig(server.URL), logger.NewNop(), nil)
	require.NoError(t, err)

	result, err := repo.AnalyzeStock(context.Background(), "AAPL", testStockData(), "No recent news found.")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, entity.SentimentNeutral, result.Sentiment)
}

func TestAnalyzeStockExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	repo, err := NewGeminiAIRepository(newGeminiTestConfig(server.URL), logger.NewNop(), nil)
	require.NoError(t, err)

	_, err = repo.AnalyzeStock(context.Background(), "AAPL", testStockData(), "No recent news found.")
	require.Error(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestAnalyzeStockRejectsInvalidModelOutput(t *testing.T) {
	cases := map[string]string{
		"unknown sentiment": `{"sentiment": "Sideways", "reasoning": "x", "predicted_low": 100, "predicted_high": 105}`,
		"inverted range":    `{"sentiment": "Bullish", "reasoning": "x", "predicted_low": 110, "predicted_high": 105}`,
		"not json":          `tomorrow looks great`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			responseText := text
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewEncoder(w).Encode(geminiResponse(responseText)))
			}))
			defer server.Close()

			cfg := newGeminiTestConfig(server.URL)
			cfg.Gemini.MaxRetries = 1
			repo, err := NewGeminiAIRepository(cfg, logger.NewNop(), nil)
			require.NoError(t, err)

			_, err = repo.AnalyzeStock(context.Background(), "AAPL", testStockData(), "No recent news found.")
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeStockTransportErrorOmitsKey(t *testing.T) {
	// Port 1 is unreachable; the resulting *url.Error quotes the request URL,
	// and the returned error must not expose the key through it.
	cfg := newGeminiTestConfig("http://127.0.0.1:1")
	cfg.Gemini.MaxRetries = 1
	repo, err := NewGeminiAIRepository(cfg, logger.NewNop(), nil)
	require.NoError(t, err)

	_, err = repo.AnalyzeStock(context.Background(), "AAPL", testStockData(), "No recent news found.")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestNewGeminiAIRepositoryRequiresKey(t *testing.T) {
	cfg := newGeminiTestConfig("http://localhost")
	cfg.Gemini.APIKey = ""

	_, err := NewGeminiAIRepository(cfg, logger.NewNop(), nil)
	assert.Error(t, err)
}

func TestRedactKey(t *testing.T) {
	url := "https://example.com/models/x:generateContent?key=super-secret"
	redacted := RedactKey(url, "super-secret")

	assert.NotContains(t, redacted, "super-secret")
	assert.Contains(t, redacted, "key=REDACTED")
	assert.Equal(t, url, RedactKey(url, ""))
}

func TestBuildStockAnalysisPromptIncludesInputs(t *testing.T) {
	prompt := BuildStockAnalysisPrompt("AAPL", testStockData(), "- Apple beats estimates")

	assert.Contains(t, prompt, "AAPL")
	assert.Contains(t, prompt, "- Apple beats estimates")
	assert.Contains(t, prompt, "predicted_low")
	assert.Contains(t, prompt, "predicted_high")
}
