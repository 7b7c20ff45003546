package dto

// GeminiAPIRequest is the request payload for the Gemini API.
type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

// Content represents the content of a request or response.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a part of the content.
type Part struct {
	Text string `json:"text"`
}

// GeminiAPIResponse is the response from the Gemini API.
type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a candidate response from the Gemini API.
type Candidate struct {
	Content Content `json:"content"`
}

// StockAnalysisResult is the JSON object the model is instructed to return
// for one symbol.
type StockAnalysisResult struct {
	Sentiment     string  `json:"sentiment"`
	Reasoning     string  `json:"reasoning"`
	PredictedLow  float64 `json:"predicted_low"`
	PredictedHigh float64 `json:"predicted_high"`
}
