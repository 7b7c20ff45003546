package dto

import "time"

// NewsAPIResponse mirrors the NewsAPI /v2/everything endpoint.
type NewsAPIResponse struct {
	Status       string        `json:"status"`
	TotalResults int           `json:"totalResults"`
	Articles     []NewsArticle `json:"articles"`
	Code         string        `json:"code"`
	Message      string        `json:"message"`
}

// NewsArticle is one headline entry.
type NewsArticle struct {
	Source      NewsSource `json:"source"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	PublishedAt time.Time  `json:"publishedAt"`
}

// NewsSource identifies the publisher of an article.
type NewsSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
