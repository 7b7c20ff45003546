package config

import (
	"time"

	"golang-stock-predictor/pkg/common"
	"golang-stock-predictor/pkg/config"
)

// Predictor holds the prediction run configuration.
type Predictor struct {
	Symbols      []string      `mapstructure:"symbols"`
	SnapshotPath string        `mapstructure:"snapshot_path"`
	HistoryPath  string        `mapstructure:"history_path"`
	SymbolDelay  time.Duration `mapstructure:"symbol_delay"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryInterval       time.Duration `mapstructure:"retry_interval"`
}

// News holds the configuration for headline retrieval. The NewsAPI key is
// optional; without it the RSS fallback is used directly.
type News struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	PageSize    int    `mapstructure:"page_size"`
	RSSFeedURL  string `mapstructure:"rss_feed_url"`
	MaxArticles int    `mapstructure:"max_articles"`
}

// YahooFinance holds the configuration for the Yahoo Finance chart API.
type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Range               string        `mapstructure:"range"`
	Interval            string        `mapstructure:"interval"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// Publisher holds the configuration for the commit-and-push stage.
type Publisher struct {
	RepoDir       string `mapstructure:"repo_dir"`
	BotName       string `mapstructure:"bot_name"`
	BotEmail      string `mapstructure:"bot_email"`
	CommitMessage string `mapstructure:"commit_message"`
	Remote        string `mapstructure:"remote"`
	Branch        string `mapstructure:"branch"`
}

// Config holds the full configuration for the prediction service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	AI           AI              `mapstructure:"ai"`
	Predictor    Predictor       `mapstructure:"predictor"`
	Gemini       Gemini          `mapstructure:"gemini"`
	News         News            `mapstructure:"news"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Publisher    Publisher       `mapstructure:"publisher"`
	Telegram     config.Telegram `mapstructure:"telegram"`
}

// Load loads the prediction service configuration from the given path. The
// two credentials always come from the environment when set (GEMINI_API_KEY,
// NEWS_API_KEY), overriding any file value.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, "gemini.api_key", "news.api_key"); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Predictor.Symbols) == 0 {
		c.Predictor.Symbols = []string{"AAPL", "GOOGL", "TSLA", "MSFT"}
	}
	if c.Predictor.SnapshotPath == "" {
		c.Predictor.SnapshotPath = common.SnapshotFileName
	}
	if c.Predictor.HistoryPath == "" {
		c.Predictor.HistoryPath = common.HistoryFileName
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash-latest"
	}
	if c.Gemini.MaxRetries == 0 {
		c.Gemini.MaxRetries = 3
	}
	if c.Gemini.RetryInterval == 0 {
		c.Gemini.RetryInterval = 2 * time.Second
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org/v2"
	}
	if c.News.PageSize == 0 {
		c.News.PageSize = 10
	}
	if c.News.RSSFeedURL == "" {
		c.News.RSSFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.Range == "" {
		c.YahooFinance.Range = "2mo"
	}
	if c.YahooFinance.Interval == "" {
		c.YahooFinance.Interval = "1d"
	}
	if c.Publisher.RepoDir == "" {
		c.Publisher.RepoDir = "."
	}
	if c.Publisher.BotName == "" {
		c.Publisher.BotName = "prediction-bot"
	}
	if c.Publisher.BotEmail == "" {
		c.Publisher.BotEmail = "prediction-bot@users.noreply.github.com"
	}
	if c.Publisher.CommitMessage == "" {
		c.Publisher.CommitMessage = "Update stock predictions and history log"
	}
	if c.Publisher.Remote == "" {
		c.Publisher.Remote = "origin"
	}
	if c.Publisher.Branch == "" {
		c.Publisher.Branch = "main"
	}
}
