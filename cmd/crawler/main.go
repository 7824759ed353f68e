package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/busmarket/bus-scraper/internal/config"
	"github.com/busmarket/bus-scraper/internal/crawler"
	"github.com/busmarket/bus-scraper/internal/database"
	"github.com/busmarket/bus-scraper/internal/feed"
	"github.com/busmarket/bus-scraper/internal/parser"
)

func main() {
	var (
		startURL = flag.String("start-url", "", "Listings page to crawl (overrides CRAWLER_START_URL)")
		feedPath = flag.String("feed", "", "Raw JSON feed file (overrides FEED_PATH)")
		migrate  = flag.Bool("migrate", true, "Run schema migration before crawling")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *startURL != "" {
		cfg.Crawler.StartURL = *startURL
	}
	if *feedPath != "" {
		cfg.Feed.Path = *feedPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    int32(cfg.Crawler.Parallelism * 2),
		MinConns:    1,
		MaxConnLife: 5 * time.Minute,
		MaxConnIdle: time.Minute,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
	}

	feedWriter, err := feed.NewWriter(cfg.Feed.Path)
	if err != nil {
		logger.Error("failed to open feed file", "error", err, "path", cfg.Feed.Path)
		os.Exit(1)
	}

	busParser := parser.NewBusParser(parser.Config{
		PassengerKeyword:     cfg.Extractor.PassengerKeyword,
		MileageKeyword:       cfg.Extractor.MileageKeyword,
		WheelchairKeyword:    cfg.Extractor.WheelchairKeyword,
		LuggageKeyword:       cfg.Extractor.LuggageKeyword,
		MainImageSelector:    cfg.Extractor.MainImageSelector,
		ThumbnailSelector:    cfg.Extractor.ThumbnailSelector,
		DetailsTableSelector: cfg.Extractor.DetailsTableSelector,
	})

	c, err := crawler.New(crawler.Config{
		StartURL:      cfg.Crawler.StartURL,
		AllowedDomain: cfg.Crawler.AllowedDomain,
		Source:        cfg.Crawler.Source,
		UserAgent:     cfg.Crawler.UserAgent,
		Parallelism:   cfg.Crawler.Parallelism,
		Delay:         cfg.Crawler.Delay,
		RandomDelay:   cfg.Crawler.RandomDelay,
		MaxRetries:    cfg.Crawler.MaxRetries,
	}, busParser, database.NewBusRepository(db), feedWriter, logger)
	if err != nil {
		logger.Error("failed to create crawler", "error", err)
		os.Exit(1)
	}

	if err := c.Run(ctx); err != nil {
		logger.Error("crawl failed", "error", err)
		os.Exit(1)
	}

	logger.Info("done",
		"scraped", c.Scraped(),
		"dropped", c.Dropped(),
		"feed", cfg.Feed.Path)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Level == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
