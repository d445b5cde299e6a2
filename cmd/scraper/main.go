package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobsearch-automation/internal/browser"
	"go-jobsearch-automation/internal/config"
	"go-jobsearch-automation/internal/database"
	"go-jobsearch-automation/internal/dedup"
	"go-jobsearch-automation/internal/filter"
	"go-jobsearch-automation/internal/ingest"
	"go-jobsearch-automation/internal/scraper"
	"go-jobsearch-automation/internal/scraper/linkedin"
	"go-jobsearch-automation/internal/scroll"
	"go-jobsearch-automation/internal/telegram"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	if err := run(*configPath, *timeout); err != nil {
		slog.Error("scraper run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	logger.Info("config loaded", slog.Any("keywords", cfg.Keywords), slog.String("db_driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store, err := database.Open(ctx, database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN(),
		MaxAttempts:  cfg.Database.MaxAttempts,
		RetryBackoff: cfg.Database.RetryBackoff,
		BusyTimeout:  cfg.Database.BusyTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	seen, closeSeen, err := openSeenCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSeen()

	var notifier ingest.Notifier
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
		notifier = bot
		logger.Info("telegram bot initialized")
	} else {
		logger.Warn("telegram not configured, notifications disabled")
	}

	pw, err := browser.NewPlaywright(ctx, browser.Options{
		Browser:  cfg.Browser.Name,
		Headless: cfg.Browser.IsHeadless(),
		Timeout:  cfg.Browser.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer pw.Close()

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		logger.Warn("could not load linkedin cookies, continuing", slog.String("path", cfg.CookiesPath), slog.Any("error", err))
	} else {
		logger.Info("loaded linkedin cookies", slog.Int("count", len(cookies)))
	}
	bctx, err := pw.NewContext(cookies)
	if err != nil {
		return err
	}
	defer bctx.Close()

	source, err := linkedin.New(bctx, linkedin.Options{
		Scroll: scroll.Options{
			HardCap:         cfg.Scroll.HardCap,
			MaxAttempts:     cfg.Scroll.MaxAttempts,
			StagnationLimit: cfg.Scroll.StagnationLimit,
			MinDelay:        cfg.Scroll.MinDelay,
			MaxDelay:        cfg.Scroll.MaxDelay,
		},
		SkipLogin:   cfg.LinkedIn.SkipLogin,
		Screenshots: browser.NewScreenshotDebugger(cfg.ScreenshotDir, logger),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer source.Close()

	pipeline := ingest.New(source, store, ingest.Options{
		Seen:     seen,
		Notifier: notifier,
		Matcher: &filter.Matcher{
			Locations: cfg.Filter.Locations,
			MaxAge:    time.Duration(cfg.Filter.MaxAgeDays) * 24 * time.Hour,
			MinScore:  cfg.Filter.MinScore,
			Strict:    cfg.Filter.Strict,
		},
		DetailMinDelay: 2 * time.Second,
		DetailMaxDelay: 4 * time.Second,
		Logger:         logger,
	})

	summary, err := pipeline.Run(ctx, searches(cfg))
	logger.Info("run summary", slog.String("summary", summary.String()))
	return err
}

func searches(cfg *config.Config) []scraper.Search {
	out := make([]scraper.Search, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		out = append(out, scraper.Search{
			Keywords:         kw,
			Location:         cfg.Location,
			ExperienceLevels: cfg.ExperienceLevels,
			DatePosted:       cfg.DatePosted,
			SortBy:           cfg.SortBy,
			MaxPages:         cfg.MaxPages,
		})
	}
	return out
}

// openSeenCache prefers Redis when configured and reachable, else the JSON file cache.
func openSeenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dedup.Cache, func(), error) {
	if cfg.Redis.Addr != "" {
		client := dedup.NewRedisClient(dedup.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache := dedup.NewRedisCache(client, "", cfg.Redis.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := cache.Health(pingCtx)
		if err == nil {
			logger.Info("using redis seen cache", slog.String("addr", cfg.Redis.Addr))
			return cache, func() { _ = client.Close() }, nil
		}
		logger.Warn("redis unavailable, falling back to file cache", slog.Any("error", err))
		_ = client.Close()
	}
	cache, err := dedup.NewFileCache(cfg.CachePath, cfg.Redis.TTL, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() {}, nil
}
