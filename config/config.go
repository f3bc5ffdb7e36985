package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Data provider: "yahoo" (default) or "angel"
	Provider string

	// Angel One credentials, required only when Provider is "angel"
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string
	AngelTokensFile string // symbol=token lines mapping symbols to Angel One tokens

	// Scan parameters
	UniverseFile  string // optional symbols file; empty means built-in NSE-500
	Symbols       string // optional comma-separated override, takes precedence
	LookbackDays  int
	RecencyWindow int
	Concurrency   int
	CacheMaxAge   time.Duration
	ScanCron      string // cron spec for scheduled scans, empty uses the default

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	HTTPAddr      string
	MetricsAddr   string

	// Notification channels, each optional
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from the environment, after merging a .env
// file when one is present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	cfg := &Config{
		Provider: getEnv("PROVIDER", "yahoo"),

		UniverseFile:  getEnv("UNIVERSE_FILE", ""),
		Symbols:       getEnv("SYMBOLS", ""),
		LookbackDays:  getEnvInt("LOOKBACK_DAYS", 365),
		RecencyWindow: getEnvInt("RECENCY_WINDOW", 7),
		Concurrency:   getEnvInt("SCAN_CONCURRENCY", 1),
		CacheMaxAge:   time.Duration(getEnvInt("CACHE_MAX_AGE_MINUTES", 60)) * time.Minute,
		ScanCron:      getEnv("SCAN_CRON", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/scans.db"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	if cfg.Provider == "angel" {
		cfg.AngelAPIKey = mustEnv("ANGEL_API_KEY")
		cfg.AngelClientCode = mustEnv("ANGEL_CLIENT_CODE")
		cfg.AngelPassword = mustEnv("ANGEL_PASSWORD")
		cfg.AngelTOTPSecret = mustEnv("ANGEL_TOTP_SECRET")
		cfg.AngelTokensFile = mustEnv("ANGEL_TOKENS_FILE")
	}
	return cfg
}

// Lookback returns the bar-history window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
