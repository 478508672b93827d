package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minhng/pricewatch/config"
	"minhng/pricewatch/internal/browser"
	"minhng/pricewatch/internal/run"
	"minhng/pricewatch/internal/scraper"
	"minhng/pricewatch/internal/server"
	"minhng/pricewatch/internal/storefront"
	"minhng/pricewatch/logger"
	"minhng/pricewatch/services/cache"
	"minhng/pricewatch/services/export"
	"minhng/pricewatch/services/publisher"
	"minhng/pricewatch/services/sheet"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("scraper_mode", cfg.ScraperMode).
		Str("port", cfg.Port).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	runner := run.NewRunner(
		services.Store,
		services.Storefront,
		services.Exporter,
		services.Publisher,
		services.Cache,
		newRendererFactory(&cfg),
		run.Options{
			Markdown:        cfg.Markdown,
			ScrapeBlockTime: cfg.ScrapeBlockTime,
		},
	)

	srv := server.NewServer(runner, services.Store, cfg.ExcelPath)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		serverDone <- httpServer.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Store      sheet.Store
	Storefront *storefront.Client
	Exporter   *export.ExcelExporter
	Cache      cache.CacheService
	Publisher  publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	store, err := sheet.NewGoogleStore(ctx, cfg.SpreadsheetID, cfg.SheetName, cfg.GoogleCredentialsFile, cfg.GoogleCredentialsJSON)
	if err != nil {
		return nil, err
	}
	services.Store = store
	logger.Info("Connected to Google Sheets (spreadsheet: %s)", cfg.SpreadsheetID)

	services.Storefront = storefront.NewClient(cfg.StorefrontAPIURL, cfg.StorefrontKey, cfg.StorefrontSecret, cfg.StorefrontRetry)
	services.Exporter = export.NewExcelExporter(cfg.ExcelPath)

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewNoop()
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}

// newRendererFactory builds the per-run renderer session constructor
func newRendererFactory(cfg *config.Config) run.RendererFactory {
	if cfg.ScraperMode == "http" {
		return func() (scraper.Renderer, func(), error) {
			return browser.NewPlain(cfg.PageLoadTimeout), func() {}, nil
		}
	}
	return func() (scraper.Renderer, func(), error) {
		chrome, err := browser.NewChrome(browser.Options{
			SettleDelay: cfg.SettleDelay,
			LoadTimeout: cfg.PageLoadTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return chrome, chrome.Close, nil
	}
}
