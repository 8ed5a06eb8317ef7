package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookscatalog/go-books-api/api"
	"github.com/bookscatalog/go-books-api/auth"
	"github.com/bookscatalog/go-books-api/catalog"
	"github.com/bookscatalog/go-books-api/config"
	"github.com/bookscatalog/go-books-api/scrape"
	"github.com/bookscatalog/go-books-api/scraper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yml", "Path to the YAML config file (optional)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(*verbose || cfg.Debug)
	slog.SetDefault(logger)

	cat := catalog.NewService(cfg.Scraper.OutputPath())
	if err := cat.Load(); err != nil {
		// degraded-mode startup: the API serves an empty table
		slog.Warn("starting with empty catalog", slog.Any("error", err))
	}

	var registry *prometheus.Registry
	var collector scrape.Collector
	if s, err := scraper.NewScraper(cfg); err != nil {
		slog.Warn("scrape trigger disabled", slog.Any("error", err))
	} else {
		collector = s
		registry = s.Metrics.Registry
	}

	runner := scrape.NewRunner(collector, func() {
		if err := cat.Load(); err != nil {
			slog.Error("reloading catalog after scrape", slog.Any("error", err))
		}
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	server := api.NewServer(cfg, cat, tokens, runner, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting API server",
			slog.String("host", cfg.Server.Host),
			slog.Int("port", cfg.Server.Port),
		)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
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
