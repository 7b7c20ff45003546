package repository

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-predictor/internal/predictor/dto"
)

// promptBarCount limits how much history goes into the prompt; only the tail
// of the fetched range is relevant for a next-day call.
const promptBarCount = 30

// BuildStockAnalysisPrompt renders the analysis request for one symbol.
func BuildStockAnalysisPrompt(symbol string, data *dto.StockData, newsDigest string) string {
	var tableBuilder strings.Builder
	tableBuilder.WriteString("Date        Open      High      Low       Close     Volume\n")

	bars := data.Bars
	if len(bars) > promptBarCount {
		bars = bars[len(bars)-promptBarCount:]
	}
	for _, bar := range bars {
		tableBuilder.WriteString(fmt.Sprintf(
			"%s  %-8.2f  %-8.2f  %-8.2f  %-8.2f  %d\n",
			time.Unix(bar.Timestamp, 0).UTC().Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		))
	}

	promptTemplate := `Analyze the financial data for **%s**.
Respond with a single, clean JSON object with keys: "sentiment", "reasoning", "predicted_low", "predicted_high".
- "sentiment": Must be "Bullish", "Bearish", or "Neutral".
- "predicted_low" and "predicted_high": your predicted trading range for the next session, as numbers.
- Do not include any text, markdown, or explanations outside of the JSON object.

Historical Data (last %d sessions):
%s
Recent News:
%s`

	return fmt.Sprintf(promptTemplate, symbol, len(bars), tableBuilder.String(), newsDigest)
}
