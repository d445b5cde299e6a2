// Package config loads run settings from configs/config.yaml, then .env, then the
// process environment. Later sources win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-jobsearch-automation/internal/browser"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	Browser  BrowserConfig  `yaml:"browser"`
	Scroll   ScrollConfig   `yaml:"scroll"`
	Filter   FilterConfig   `yaml:"filter"`

	//Search criteria
	Keywords         []string `yaml:"keywords" env:"JOBSEARCH_KEYWORDS" envSeparator:";"`
	Location         string   `yaml:"location" env:"JOBSEARCH_LOCATION"`
	ExperienceLevels []string `yaml:"experience_levels" env:"JOBSEARCH_EXPERIENCE_LEVELS"`
	DatePosted       string   `yaml:"date_posted" env:"JOBSEARCH_DATE_POSTED"`
	SortBy           string   `yaml:"sort_by" env:"JOBSEARCH_SORT_BY"`
	MaxPages         int      `yaml:"max_pages" env:"JOBSEARCH_MAX_PAGES"`

	//Paths
	CookiesPath   string `yaml:"cookies_path" env:"JOBSEARCH_COOKIES_PATH"`
	CachePath     string `yaml:"cache_path" env:"JOBSEARCH_CACHE_PATH"`
	ScreenshotDir string `yaml:"screenshot_dir" env:"JOBSEARCH_SCREENSHOT_DIR"`
	ExportDir     string `yaml:"export_dir" env:"JOBSEARCH_EXPORT_DIR"`
}

type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver       string        `yaml:"driver" env:"JOBSEARCH_DB_DRIVER"`
	Path         string        `yaml:"path" env:"JOBSEARCH_DB_PATH"`
	URL          string        `yaml:"url" env:"DATABASE_URL"`
	MaxAttempts  int           `yaml:"max_attempts" env:"JOBSEARCH_DB_MAX_ATTEMPTS"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"JOBSEARCH_DB_RETRY_BACKOFF"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" env:"JOBSEARCH_DB_BUSY_TIMEOUT"`
}

// DSN returns the connection target of the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// RedisConfig enables the shared seen cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_SEEN_TTL"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether notifications can be sent.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type LinkedInConfig struct {
	Username  string `yaml:"username" env:"LINKEDIN_USERNAME"`
	Password  string `yaml:"-" env:"LINKEDIN_PASSWORD"`
	SkipLogin bool   `yaml:"skip_login" env:"LINKEDIN_SKIP_LOGIN"`
}

type BrowserConfig struct {
	Name     string        `yaml:"name" env:"JOBSEARCH_BROWSER"`
	Headless *bool         `yaml:"headless" env:"JOBSEARCH_HEADLESS"`
	Timeout  time.Duration `yaml:"timeout" env:"JOBSEARCH_BROWSER_TIMEOUT"`
}

// IsHeadless defaults to true when unset.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

type ScrollConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" env:"JOBSEARCH_SCROLL_MAX_ATTEMPTS"`
	StagnationLimit int           `yaml:"stagnation_limit" env:"JOBSEARCH_SCROLL_STAGNATION"`
	HardCap         int           `yaml:"hard_cap" env:"JOBSEARCH_SCROLL_HARD_CAP"`
	MinDelay        time.Duration `yaml:"min_delay" env:"JOBSEARCH_SCROLL_MIN_DELAY"`
	MaxDelay        time.Duration `yaml:"max_delay" env:"JOBSEARCH_SCROLL_MAX_DELAY"`
}

type FilterConfig struct {
	MinScore   int      `yaml:"min_score" env:"JOBSEARCH_MIN_SCORE"`
	Strict     bool     `yaml:"strict" env:"JOBSEARCH_STRICT_FILTER"`
	MaxAgeDays int      `yaml:"max_age_days" env:"JOBSEARCH_MAX_AGE_DAYS"`
	Locations  []string `yaml:"locations" env:"JOBSEARCH_LOCATIONS" envSeparator:";"`
}

// Load reads path (DefaultPath when empty), overlays .env and the environment, then
// sanitizes and validates the result. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("config file not found, using defaults", slog.String("path", path))
	default:
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize applies defaults to unset values.
func (c *Config) Sanitize() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Database.Sanitize()
	c.Scroll.Sanitize()

	if c.Browser.Name == "" {
		c.Browser.Name = browser.Chromium
	}
	c.Browser.Name = strings.ToLower(c.Browser.Name)
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 20 * time.Second
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 1
	}
	if c.Filter.MaxAgeDays <= 0 {
		c.Filter.MaxAgeDays = 60
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = 30 * 24 * time.Hour
	}
	if c.CookiesPath == "" {
		c.CookiesPath = ".cookies/cookies-linkedin.json"
	}
	if c.CachePath == "" {
		c.CachePath = ".cache"
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "logs/screenshots"
	}
	if c.ExportDir == "" {
		c.ExportDir = "output"
	}
}

func (d *DatabaseConfig) Sanitize() {
	if d.Driver == "" {
		d.Driver = "sqlite"
	}
	d.Driver = strings.ToLower(d.Driver)
	if d.Path == "" {
		d.Path = "jobs/jobsearch.db"
	}
	if d.MaxAttempts < 1 {
		d.MaxAttempts = 3
	}
	if d.RetryBackoff <= 0 {
		d.RetryBackoff = 500 * time.Millisecond
	}
	if d.BusyTimeout <= 0 {
		d.BusyTimeout = 5 * time.Second
	}
}

func (s *ScrollConfig) Sanitize() {
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 20
	}
	if s.StagnationLimit < 1 {
		s.StagnationLimit = 3
	}
	if s.HardCap < 1 {
		s.HardCap = 100
	}
	if s.MinDelay <= 0 {
		s.MinDelay = 2 * time.Second
	}
	if s.MaxDelay < s.MinDelay {
		s.MaxDelay = s.MinDelay + time.Second
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q (supported: sqlite, postgres)", c.Database.Driver)
	}
	if !browser.SupportedBrowser(c.Browser.Name) {
		return fmt.Errorf("unsupported browser %q (supported: chromium, firefox, webkit)", c.Browser.Name)
	}
	if c.Filter.MinScore < 0 || c.Filter.MinScore > 10 {
		return fmt.Errorf("filter.min_score must be between 0 and 10, got %d", c.Filter.MinScore)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}
