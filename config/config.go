package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Refresh   RefreshConfig
	Store     StoreConfig
	Notify    NotifyConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Renderer selects the page renderer: "browser" (headless Chrome) or
	// "http" (plain fetch, no JavaScript).
	Renderer string // default: "browser"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page loading and extraction.
type ScraperConfig struct {
	// LoadTimeout bounds navigation plus rendering of a single page.
	LoadTimeout time.Duration // default: 30s

	// UserAgent is sent with every page load.
	UserAgent string

	// BlockedResourceTypes lists resource types the browser never downloads.
	// default: ["Font", "Media", "Stylesheet"]
	BlockedResourceTypes []string
}

// RefreshConfig controls the batch refresher.
type RefreshConfig struct {
	// Pacing is the pause between two consecutive items of a batch.
	Pacing time.Duration // default: 2s

	// Interval runs a refresh batch periodically. Zero disables the scheduler.
	Interval time.Duration // default: 0
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string // "sqlite" or "postgres"; default: "sqlite"
	DSN    string // default: "price_tracker.db"
}

// NotifyConfig controls price alert delivery. Every configured channel
// receives each alert; with none configured alerts are only logged.
type NotifyConfig struct {
	SMTPHost     string
	SMTPPort     int // default: 465
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// AlertTo is the recipient address for alert emails.
	AlertTo string

	WebhookURL    string
	WebhookSecret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICEWATCH_HOST", "0.0.0.0"),
			Port: envIntOr("PRICEWATCH_PORT", 8080),
			Mode: envOr("PRICEWATCH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Renderer:   envOr("PRICEWATCH_RENDERER", "browser"),
			Headless:   envBoolOr("PRICEWATCH_HEADLESS", true),
			NoSandbox:  envBoolOr("PRICEWATCH_NO_SANDBOX", true),
			BrowserBin: os.Getenv("PRICEWATCH_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			LoadTimeout: envDurationOr("PRICEWATCH_LOAD_TIMEOUT", 30*time.Second),
			UserAgent:   envOr("PRICEWATCH_USER_AGENT", DefaultUserAgent),
			BlockedResourceTypes: envSliceOr("PRICEWATCH_BLOCKED_RESOURCES", []string{
				"Font", "Media", "Stylesheet",
			}),
		},
		Refresh: RefreshConfig{
			Pacing:   envDurationOr("PRICEWATCH_REFRESH_PACING", 2*time.Second),
			Interval: envDurationOr("PRICEWATCH_REFRESH_INTERVAL", 0),
		},
		Store: StoreConfig{
			Driver: envOr("PRICEWATCH_DB_DRIVER", "sqlite"),
			DSN:    envOr("PRICEWATCH_DB_DSN", "price_tracker.db"),
		},
		Notify: NotifyConfig{
			SMTPHost:      os.Getenv("PRICEWATCH_SMTP_HOST"),
			SMTPPort:      envIntOr("PRICEWATCH_SMTP_PORT", 465),
			SMTPUser:      os.Getenv("PRICEWATCH_SMTP_USER"),
			SMTPPassword:  os.Getenv("PRICEWATCH_SMTP_PASSWORD"),
			SMTPFrom:      os.Getenv("PRICEWATCH_SMTP_FROM"),
			AlertTo:       os.Getenv("PRICEWATCH_ALERT_TO"),
			WebhookURL:    os.Getenv("PRICEWATCH_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("PRICEWATCH_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICEWATCH_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PRICEWATCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICEWATCH_RATE_RPS", 5.0),
			Burst:             envIntOr("PRICEWATCH_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("PRICEWATCH_LOG_LEVEL", "info"),
			Format: envOr("PRICEWATCH_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
