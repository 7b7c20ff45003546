package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang-stock-predictor/internal/predictor/config"
	"golang-stock-predictor/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// excerptLimit caps how much extracted article text is appended per item.
const excerptLimit = 300

// rssNewsRepository is the fallback headline source: a public RSS feed, with
// optional readable-text extraction for the top items.
type rssNewsRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	client *http.Client
	parser *gofeed.Parser
}

// NewRSSNewsRepository creates a new instance of rssNewsRepository.
func NewRSSNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &rssNewsRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
	}
}

// GetHeadlines parses the configured feed for the symbol and returns a bullet
// list of titles, newest first, enriched with article excerpts when enabled.
func (r *rssNewsRepository) GetHeadlines(ctx context.Context, symbol string) (string, error) {
	feedURL := fmt.Sprintf(r.cfg.News.RSSFeedURL, symbol)
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	items := feed.Items
	sort.Slice(items, func(i, j int) bool {
		if items[i].PublishedParsed == nil || items[j].PublishedParsed == nil {
			return false
		}
		return items[i].PublishedParsed.After(*items[j].PublishedParsed)
	})

	if len(items) > r.cfg.News.PageSize {
		items = items[:r.cfg.News.PageSize]
	}
	if len(items) == 0 {
		return "No recent news found.", nil
	}

	var digest strings.Builder
	for i, item := range items {
		digest.WriteString("- ")
		digest.WriteString(item.Title)
		digest.WriteString("\n")

		if i < r.cfg.News.MaxArticles && item.Link != "" {
			excerpt, err := r.extractArticleText(ctx, item.Link)
			if err != nil {
				r.logger.Debug("Failed to extract article text",
					logger.ErrorField(err),
					logger.StringField("url", item.Link),
				)
				continue
			}
			if excerpt != "" {
				digest.WriteString("  ")
				digest.WriteString(excerpt)
				digest.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(digest.String(), "\n"), nil
}

// extractArticleText fetches an article and reduces it to a short plain-text
// excerpt for the prompt.
func (r *rssNewsRepository) extractArticleText(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create article request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}

	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse extracted content: %w", err)
	}

	text := strings.Join(strings.Fields(docHTML.Text()), " ")
	return truncateExcerpt(text), nil
}

// truncateExcerpt caps the excerpt length, cutting on a rune boundary so a
// multi-byte character is never split.
func truncateExcerpt(text string) string {
	if len(text) <= excerptLimit {
		return text
	}
	cut := excerptLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
