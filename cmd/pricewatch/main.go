package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pricewatch/api"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/extract"
	"github.com/use-agent/pricewatch/metrics"
	"github.com/use-agent/pricewatch/notify"
	"github.com/use-agent/pricewatch/refresh"
	"github.com/use-agent/pricewatch/render"
	"github.com/use-agent/pricewatch/store"
	"github.com/use-agent/pricewatch/tracker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pricewatch exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("pricewatch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"renderer", cfg.Browser.Renderer,
		"store", cfg.Store.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Open the store ───────────────────────────────────────────
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// ── 4. Initialise renderer (launches browser) ───────────────────
	renderer, closeRenderer, err := render.New(cfg.Browser, cfg.Scraper)
	if err != nil {
		return fmt.Errorf("initialise renderer: %w", err)
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			slog.Warn("renderer close failed", "error", err)
		}
	}()

	// ── 5. Wire extraction, alerts and refresh ──────────────────────
	collector := metrics.New()
	extractor := extract.New(renderer,
		extract.WithTimeout(cfg.Scraper.LoadTimeout),
		extract.WithRecorder(collector),
	)

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return fmt.Errorf("configure notifications: %w", err)
	}

	refresher := refresh.New(extractor, st, notifier,
		refresh.WithPacing(cfg.Refresh.Pacing),
		refresh.WithRecorder(collector),
	)
	go refresh.NewScheduler(refresher, cfg.Refresh.Interval).Start(ctx)

	// ── 6. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(ctx, cfg, api.Deps{
		Products:     tracker.New(extractor, st),
		Refresher:    refresher,
		Store:        st,
		Metrics:      collector,
		RendererName: renderer.Name(),
		StartTime:    time.Now(),
	})

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give in-flight requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// A refresh batch is detached from its request; stop it before the
	// renderer and store close.
	if err := refresher.Shutdown(shutdownCtx); err != nil {
		slog.Error("refresh still running at shutdown", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Renderer and store close via defer.
	slog.Info("pricewatch stopped")
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
