package config

import (
	"os"
	"strconv"
	"time"

	"minhng/pricewatch/pkg/errors"
	"minhng/pricewatch/pkg/retry"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	Port string

	// Google Sheets configuration
	SpreadsheetID         string
	SheetName             string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Storefront (WooCommerce) configuration
	StorefrontAPIURL string
	StorefrontKey    string
	StorefrontSecret string
	StorefrontRetry  retry.Config

	// Scraper configuration
	ScraperMode     string // "chrome" or "http"
	SettleDelay     time.Duration
	PageLoadTimeout time.Duration
	Markdown        int
	ScrapeBlockTime time.Duration

	// Excel artifact
	ExcelPath string

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration (price-change events; disabled when addr is empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	markdown, _ := strconv.Atoi(getEnv("UPDATE_PRICE_MARKDOWN", "5000"))
	settleMs, _ := strconv.Atoi(getEnv("SCRAPE_SETTLE_DELAY_MS", "1500"))
	loadTimeout, _ := strconv.Atoi(getEnv("PAGE_LOAD_TIMEOUT_SECONDS", "45"))
	blockTime, _ := strconv.Atoi(getEnv("SCRAPE_BLOCK_SECONDS", "300"))
	retries, _ := strconv.Atoi(getEnv("STOREFRONT_MAX_RETRIES", "2"))

	return Config{
		Port:                  getEnv("PORT", "10000"),
		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		SheetName:             getEnv("SHEET_NAME", "Sheet1"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		StorefrontAPIURL:      getEnv("WC_API_URL", ""),
		StorefrontKey:         getEnv("WC_CONSUMER_KEY", ""),
		StorefrontSecret:      getEnv("WC_CONSUMER_SECRET", ""),
		StorefrontRetry: retry.Config{
			MaxRetries: retries,
			BaseDelay:  1 * time.Second,
			MaxDelay:   10 * time.Second,
			Timeout:    15 * time.Second,
		},
		ScraperMode:          getEnv("SCRAPER_MODE", "chrome"),
		SettleDelay:          time.Duration(settleMs) * time.Millisecond,
		PageLoadTimeout:      time.Duration(loadTimeout) * time.Second,
		Markdown:             markdown,
		ScrapeBlockTime:      time.Duration(blockTime) * time.Second,
		ExcelPath:            getEnv("EXCEL_PATH", "ketqua_gia.xlsx"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "pricechanges"),
		RedisStreamMaxLength: streamMaxLen,
		Environment:          getEnv("PRICEWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is complete enough to start.
// Missing credentials are a startup failure, not a per-row one.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return errors.NewConfiguration("SPREADSHEET_ID is required", nil)
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		return errors.NewConfiguration("GOOGLE_CREDENTIALS or GOOGLE_CREDENTIALS_FILE is required", nil)
	}
	if c.StorefrontAPIURL == "" || c.StorefrontKey == "" || c.StorefrontSecret == "" {
		return errors.NewConfiguration("WC_API_URL, WC_CONSUMER_KEY and WC_CONSUMER_SECRET are required", nil)
	}
	if c.ScraperMode != "chrome" && c.ScraperMode != "http" {
		return errors.NewConfiguration("SCRAPER_MODE must be chrome or http", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
