package config

import (
	"time"

	"golang-stock-predictor/pkg/config"
)

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	CronExpression  string        `mapstructure:"cron_expression"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

// Pipeline points at the predictor configuration the scheduler launches runs
// with.
type Pipeline struct {
	ConfigPath string `mapstructure:"config_path"`
}

// Config holds the full configuration for the scheduling service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Pipeline  Pipeline        `mapstructure:"pipeline"`
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg,
		"telegram.bot_token",
		"database.password",
		"redis.password",
	); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Scheduler.CronExpression == "" {
		// Weekdays at 22:00 UTC, after US market close.
		cfg.Scheduler.CronExpression = "0 22 * * 1-5"
	}
	if cfg.Scheduler.PollingInterval <= 0 {
		cfg.Scheduler.PollingInterval = 30 * time.Second
	}
	if cfg.Scheduler.LockTTL <= 0 {
		cfg.Scheduler.LockTTL = 30 * time.Minute
	}
}
