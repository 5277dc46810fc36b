package render

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/models"
	"github.com/ysmood/gson"
)

// Default viewport for rendered pages.
const (
	viewportWidth  = 1280
	viewportHeight = 800
)

// defaultHeaders are sent with every navigation. The tracked shops serve
// Traditional Chinese content.
var defaultHeaders = map[string]string{
	"Accept-Language": "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7",
}

// RodRenderer renders pages in headless Chrome. The browser process is
// launched once; every Load runs in its own incognito browser context which
// is disposed when the returned Document is closed.
type RodRenderer struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	scraperCfg config.ScraperConfig
	active     atomic.Int32
}

// NewRodRenderer launches the browser described by browserCfg.
func NewRodRenderer(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*RodRenderer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeRenderFailure,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeRenderFailure,
			"failed to connect to browser",
			err,
		)
	}

	return &RodRenderer{
		launcher:   l,
		browser:    browser,
		scraperCfg: scraperCfg,
	}, nil
}

func (r *RodRenderer) Name() string { return "browser" }

// Active reports how many sessions are currently open.
func (r *RodRenderer) Active() int { return int(r.active.Load()) }

// Load renders url in a fresh incognito session.
//
// Lifecycle:
//
//  1. Timeout guard     – hard deadline on navigation and rendering
//  2. Open session      – incognito context + blank tab
//  3. Prepare page      – user agent, viewport, headers, resource blocking
//  4. Navigate          – bound to the timeout context
//  5. Wait              – optional selector, then DOM stable
//  6. Snapshot          – HTML, document.title, body.innerText
//
// On any failure the session is released before returning. On success the
// session is released by Document.Close.
func (r *RodRenderer) Load(ctx context.Context, url string, opts LoadOptions) (Document, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.scraperCfg.LoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Open session ───────────────────────────────────────────────
	session, err := r.browser.Incognito()
	if err != nil {
		return nil, categorizeError(err, "failed to open browser session")
	}
	page, err := session.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = session.Close()
		return nil, categorizeError(err, "failed to open browser tab")
	}
	r.active.Add(1)

	var router *rod.HijackRouter
	release := func() error {
		defer r.active.Add(-1)
		if router != nil {
			_ = router.Stop()
		}
		_ = page.Close()
		return session.Close()
	}

	handedOff := false
	defer func() {
		if !handedOff {
			if err := release(); err != nil {
				slog.Warn("failed to release browser session", "url", url, "error", err)
			}
		}
	}()

	// ── 3. Prepare page ───────────────────────────────────────────────
	if r.scraperCfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: r.scraperCfg.UserAgent,
		}); err != nil {
			slog.Debug("failed to set user agent", "error", err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Debug("failed to set viewport", "error", err)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(defaultHeaders),
	}.Call(page)

	router = setupHijack(page, r.scraperCfg.BlockedResourceTypes)

	// ── 4. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return nil, categorizeError(err, "navigation to product page failed")
	}

	// ── 5. Wait ───────────────────────────────────────────────────────
	if opts.WaitSelector != "" {
		waitTimeout := opts.WaitTimeout
		if waitTimeout <= 0 {
			waitTimeout = 5 * time.Second
		}
		if _, err := p.Timeout(waitTimeout).Element(opts.WaitSelector); err != nil {
			slog.Debug("wait selector not found, proceeding",
				"url", url, "selector", opts.WaitSelector, "error", err)
		}
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", url, "error", err)
	}

	// ── 6. Snapshot ───────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read rendered HTML")
	}
	title := evalStringOrEmpty(p, `() => document.title`)
	text := evalStringOrEmpty(p, `() => document.body ? document.body.innerText : ""`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = url
	}

	doc, err := NewDocument(finalURL, rawHTML, title, text)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeScrapeError, "failed to parse rendered HTML", err)
	}
	doc.OnClose(release)
	handedOff = true
	return doc, nil
}

// Close shuts the browser down and removes its profile directory.
func (r *RodRenderer) Close() error {
	slog.Info("renderer shutting down: closing browser")
	if n := r.Active(); n > 0 {
		slog.Warn("closing browser with sessions still open", "sessions", n)
	}
	err := r.browser.Close()
	r.launcher.Kill()
	r.launcher.Cleanup()
	return err
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
