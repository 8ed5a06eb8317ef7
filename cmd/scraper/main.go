package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookscatalog/go-books-api/config"
	"github.com/bookscatalog/go-books-api/scraper"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yml", "Path to the YAML config file (optional)")
	baseURL := flag.String("base-url", "", "Base URL to crawl (overrides config)")
	maxPages := flag.Int("pages", 0, "Maximum catalog pages to crawl (overrides config)")
	dataDir := flag.String("data-dir", "", "Dataset directory (overrides config)")
	output := flag.String("output", "", "Dataset file name (overrides config)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Scraper.BaseURL = *baseURL
	}
	if *maxPages > 0 {
		cfg.Scraper.MaxPages = *maxPages
	}
	if *dataDir != "" {
		cfg.Scraper.DataDir = *dataDir
	}
	if *output != "" {
		cfg.Scraper.OutputFile = *output
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(*verbose || cfg.Debug)
	slog.SetDefault(logger)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting crawl",
		slog.String("base_url", cfg.Scraper.BaseURL),
		slog.Int("pages", cfg.Scraper.MaxPages),
		slog.String("output", cfg.Scraper.OutputPath()),
	)

	start := time.Now()
	if err := s.Run(ctx); err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	stats := s.Stats()
	fmt.Println("--------------------------------------------------")
	fmt.Println("Crawl complete")
	fmt.Printf("  Pages:     %d\n", stats.Pages)
	fmt.Printf("  Items:     %d\n", stats.Items)
	fmt.Printf("  Requests:  %d\n", stats.Requests)
	fmt.Printf("  Errors:    %d\n", stats.Errors)
	fmt.Printf("  Duration:  %v\n", time.Since(start))
	fmt.Printf("  Output:    %s\n", cfg.Scraper.OutputPath())
	fmt.Println("--------------------------------------------------")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
