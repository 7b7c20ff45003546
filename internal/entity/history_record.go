package entity

import (
	"strconv"
	"time"

	"golang-stock-predictor/pkg/utils"
)

// HistoryHeader is the fixed column order of history.csv. The header row is
// written only when the file is first created; every run after that appends.
var HistoryHeader = []string{
	"date", "symbol", "actual_price", "price_change",
	"price_change_percent", "ai_sentiment_for_tomorrow",
	"predicted_low_for_tomorrow", "predicted_high_for_tomorrow",
	"yesterdays_predicted_range", "accuracy_check_hit",
}

// HistoryRecord is one appended row of history.csv.
type HistoryRecord struct {
	Date                     time.Time
	Symbol                   string
	ActualPrice              float64
	PriceChange              float64
	PriceChangePercent       float64
	Sentiment                string
	PredictedLow             *float64
	PredictedHigh            *float64
	YesterdaysPredictedRange string
	AccuracyCheckHit         *bool
}

// Row renders the record in HistoryHeader column order. Prices use four
// decimal places; unknown optional values render as empty cells.
func (r HistoryRecord) Row() []string {
	return []string{
		utils.FormatDateUTC(r.Date),
		r.Symbol,
		formatPrice(r.ActualPrice),
		formatPrice(r.PriceChange),
		formatPrice(r.PriceChangePercent),
		r.Sentiment,
		formatOptionalPrice(r.PredictedLow),
		formatOptionalPrice(r.PredictedHigh),
		r.YesterdaysPredictedRange,
		formatOptionalBool(r.AccuracyCheckHit),
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(utils.Round4(v), 'f', -1, 64)
}

func formatOptionalPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return formatPrice(*v)
}

func formatOptionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
