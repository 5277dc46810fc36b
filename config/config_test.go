package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// t.Setenv to "" masks anything inherited from the environment.
	for _, key := range []string{
		"PRICEWATCH_PORT", "PRICEWATCH_RENDERER", "PRICEWATCH_LOAD_TIMEOUT",
		"PRICEWATCH_REFRESH_PACING", "PRICEWATCH_REFRESH_INTERVAL",
		"PRICEWATCH_DB_DRIVER", "PRICEWATCH_DB_DSN", "PRICEWATCH_BLOCKED_RESOURCES",
		"PRICEWATCH_AUTH_ENABLED", "PRICEWATCH_API_KEYS", "PRICEWATCH_SMTP_PORT",
		"PRICEWATCH_NO_SANDBOX", "PRICEWATCH_USER_AGENT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Browser.Renderer != "browser" {
		t.Errorf("Browser.Renderer = %q, want browser", cfg.Browser.Renderer)
	}
	if !cfg.Browser.NoSandbox {
		t.Error("Browser.NoSandbox should default to true")
	}
	if cfg.Scraper.LoadTimeout != 30*time.Second {
		t.Errorf("Scraper.LoadTimeout = %v, want 30s", cfg.Scraper.LoadTimeout)
	}
	if cfg.Scraper.UserAgent != DefaultUserAgent {
		t.Errorf("Scraper.UserAgent = %q", cfg.Scraper.UserAgent)
	}
	if want := []string{"Font", "Media", "Stylesheet"}; !reflect.DeepEqual(cfg.Scraper.BlockedResourceTypes, want) {
		t.Errorf("BlockedResourceTypes = %v, want %v", cfg.Scraper.BlockedResourceTypes, want)
	}
	if cfg.Refresh.Pacing != 2*time.Second {
		t.Errorf("Refresh.Pacing = %v, want 2s", cfg.Refresh.Pacing)
	}
	if cfg.Refresh.Interval != 0 {
		t.Errorf("Refresh.Interval = %v, want 0", cfg.Refresh.Interval)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "price_tracker.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Notify.SMTPPort != 465 {
		t.Errorf("Notify.SMTPPort = %d, want 465", cfg.Notify.SMTPPort)
	}
	if cfg.Auth.Enabled || cfg.Auth.APIKeys != nil {
		t.Errorf("Auth = %+v, want disabled with no keys", cfg.Auth)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRICEWATCH_PORT", "9090")
	t.Setenv("PRICEWATCH_RENDERER", "http")
	t.Setenv("PRICEWATCH_REFRESH_PACING", "500ms")
	t.Setenv("PRICEWATCH_REFRESH_INTERVAL", "1h")
	t.Setenv("PRICEWATCH_DB_DRIVER", "postgres")
	t.Setenv("PRICEWATCH_DB_DSN", "postgres://localhost/pricewatch?sslmode=disable")
	t.Setenv("PRICEWATCH_API_KEYS", "a, b,,c ")
	t.Setenv("PRICEWATCH_AUTH_ENABLED", "true")
	t.Setenv("PRICEWATCH_RATE_RPS", "2.5")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Browser.Renderer != "http" {
		t.Errorf("Browser.Renderer = %q", cfg.Browser.Renderer)
	}
	if cfg.Refresh.Pacing != 500*time.Millisecond || cfg.Refresh.Interval != time.Hour {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("Store.Driver = %q", cfg.Store.Driver)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cfg.Auth.APIKeys, want) {
		t.Errorf("APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled should be true")
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RateLimit.RequestsPerSecond = %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PRICEWATCH_PORT", "not-a-number")
	t.Setenv("PRICEWATCH_LOAD_TIMEOUT", "soon")
	t.Setenv("PRICEWATCH_HEADLESS", "maybe")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.Scraper.LoadTimeout != 30*time.Second {
		t.Errorf("LoadTimeout = %v, want fallback 30s", cfg.Scraper.LoadTimeout)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should fall back to true")
	}
}
