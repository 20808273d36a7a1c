package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted in STORAGE_BACKEND
const (
	BackendMemory     = "memory"
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
)

// Config holds the application configuration
type Config struct {
	Env         string
	LogLevel    string
	Port        string
	CatalogName string

	// Persistence
	StorageBackend   string
	SnapshotFile     string
	SQLitePath       string
	PostgresDSN      string
	SnapshotInterval time.Duration // 0 disables periodic saves

	// Seeding an empty catalog
	SeedSampleData bool
	SeedFile       string

	// Telegram bot, disabled when TelegramToken is empty
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	// HTTP API
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool
}

// BotEnabled reports whether a Telegram token was configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// IsProduction reports whether ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Env:         os.Getenv("ENV"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),
		CatalogName: getEnv("CATALOG_NAME", "My Personal Library"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		SnapshotFile:   getEnv("SNAPSHOT_FILE", "library.json"),
		SQLitePath:     getEnv("SQLITE_PATH", "library.db"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),

		SeedSampleData: os.Getenv("SEED_SAMPLE_DATA") == "true",
		SeedFile:       os.Getenv("SEED_FILE"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	var err error
	if config.SnapshotInterval, err = parseDuration("SNAPSHOT_INTERVAL", 0); err != nil {
		return nil, err
	}

	switch config.StorageBackend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendClickHouse:
		if err := loadClickHouse(config); err != nil {
			return nil, err
		}
	case BackendPostgres:
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when STORAGE_BACKEND is postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, file, sqlite, clickhouse or postgres)", config.StorageBackend)
	}

	if config.BotEnabled() {
		if err := loadBot(config); err != nil {
			return nil, err
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, o)
			}
		}
	}

	if config.RateLimitRPS, err = parseFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if config.RateLimitBurst, err = parseInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	return config, nil
}

func loadBot(config *Config) error {
	// Allowed User IDs (required with a token)
	allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
	if allowedIDsStr == "" {
		return fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	for _, idStr := range strings.Split(allowedIDsStr, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		config.AllowedUserIDs = append(config.AllowedUserIDs, id)
	}

	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}
	return nil
}

func loadClickHouse(config *Config) error {
	config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if config.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
	}

	port, err := parseInt("CLICKHOUSE_PORT", 9000) // Default ClickHouse native port
	if err != nil {
		return err
	}
	config.ClickHousePort = port

	config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
	config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
	config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return v, nil
}
