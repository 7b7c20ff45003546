package dto

// GetStockDataParam selects what to fetch from the chart API.
type GetStockDataParam struct {
	Symbol   string
	Range    string
	Interval string
}

// OHLCV is one daily bar.
type OHLCV struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// StockData is the flattened chart API result for one symbol. Bars are in
// chronological order.
type StockData struct {
	Symbol      string
	MarketPrice float64
	Bars        []OHLCV
}

// LastClose returns the most recent close, or 0 when no bars exist.
func (d *StockData) LastClose() float64 {
	if len(d.Bars) == 0 {
		return 0
	}
	return d.Bars[len(d.Bars)-1].Close
}

// PreviousClose returns the close before the most recent one.
func (d *StockData) PreviousClose() float64 {
	if len(d.Bars) < 2 {
		return 0
	}
	return d.Bars[len(d.Bars)-2].Close
}

// ChartAPIResponse mirrors the Yahoo Finance v8 chart endpoint.
type ChartAPIResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartResult is one symbol's chart payload.
type ChartResult struct {
	Meta       ChartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

// ChartMeta carries symbol-level metadata.
type ChartMeta struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

// ChartQuote holds the parallel OHLCV arrays.
type ChartQuote struct {
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []int64   `json:"volume"`
}

// ChartError is the error object the chart API returns in-band.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
