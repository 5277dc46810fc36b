package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/platform"
	"github.com/use-agent/pricewatch/render"
)

// DefaultLoadTimeout bounds one page load.
const DefaultLoadTimeout = 30 * time.Second

// Extraction outcomes reported to a Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeNoPrice = "no_price"
	OutcomeFailure = "failure"
)

// Recorder observes extraction activity. metrics.Collector implements it.
type Recorder interface {
	ObserveStrategy(strategy string, contributed bool)
	ObserveExtraction(platform models.Platform, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStrategy(string, bool)                             {}
func (nopRecorder) ObserveExtraction(models.Platform, string, time.Duration) {}

// Extractor turns a product URL into an ExtractionResult. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	renderer render.Renderer
	timeout  time.Duration
	recorder Recorder

	openGraph Strategy
	metadata  Strategy
	bodyText  Strategy
	jsonLD    Strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout overrides the page load timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Extractor) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New creates an Extractor that loads pages through renderer.
func New(renderer render.Renderer, opts ...Option) *Extractor {
	e := &Extractor{
		renderer:  renderer,
		timeout:   DefaultLoadTimeout,
		recorder:  nopRecorder{},
		openGraph: openGraphStrategy{},
		metadata:  metadataStrategy{},
		bodyText:  bodyTextStrategy{},
		jsonLD:    jsonLDStrategy{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract loads url and reads its product fields.
//
// Pipeline:
//
//  1. Resolve platform  – URL substring table
//  2. Render            – one isolated session, closed on every exit path
//  3. Selectors         – platform-specific markup, seeds the result
//  4. Title fallback    – browser page title
//  5. Image fallback    – Open Graph, then readability metadata
//  6. Price fallback    – body text currency regex, then JSON-LD
//  7. Build result      – a zero price is a valid output
//
// Load failures return a RENDER_FAILURE error; a panic in steps 2-6 returns
// SCRAPE_ERROR.
func (e *Extractor) Extract(ctx context.Context, url string) (result *models.ExtractionResult, err error) {
	start := time.Now()

	// ── 1. Resolve platform ───────────────────────────────────────────
	p := platform.Resolve(url)

	defer func() {
		outcome := OutcomeSuccess
		switch {
		case err != nil:
			outcome = OutcomeFailure
		case !result.HasPrice():
			outcome = OutcomeNoPrice
		}
		e.recorder.ObserveExtraction(p, outcome, time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("extraction panicked", "url", url, "panic", r)
			result = nil
			err = models.NewScrapeError(models.ErrCodeScrapeError,
				"extraction failed unexpectedly", fmt.Errorf("panic: %v", r))
		}
	}()

	// ── 2. Render ─────────────────────────────────────────────────────
	selectors, hasSelectors := newSelectorStrategy(p)
	opts := render.LoadOptions{Timeout: e.timeout}
	if set, ok := selectorsFor(p); ok && set.WaitFor != "" {
		opts.WaitSelector = set.WaitFor
		opts.WaitTimeout = set.WaitTimeout
	}

	doc, err := e.renderer.Load(ctx, url, opts)
	if err != nil {
		slog.Warn("page load failed", "url", url, "platform", p, "error", err)
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			slog.Warn("failed to close document", "url", url, "error", cerr)
		}
	}()

	// ── 3. Selectors ──────────────────────────────────────────────────
	var found Partial
	if hasSelectors {
		found = e.attempt(selectors, doc, url)
	}

	// ── 4. Title fallback ─────────────────────────────────────────────
	found = Merge(found, Partial{Title: nonEmpty(doc.PageTitle())})

	// ── 5. Image fallback ─────────────────────────────────────────────
	for _, s := range []Strategy{e.openGraph, e.metadata} {
		if found.ImageURL != nil {
			break
		}
		found = Merge(found, Partial{ImageURL: e.attempt(s, doc, url).ImageURL})
	}

	// ── 6. Price fallback ─────────────────────────────────────────────
	for _, s := range []Strategy{e.bodyText, e.jsonLD} {
		if found.Price != nil {
			break
		}
		found = Merge(found, Partial{Price: e.attempt(s, doc, url).Price})
	}

	// ── 7. Build result ───────────────────────────────────────────────
	result = &models.ExtractionResult{Platform: p}
	if found.Title != nil {
		result.Title = *found.Title
	}
	if found.Price != nil {
		result.Price = *found.Price
	}
	result.ImageURL = found.ImageURL

	slog.Info("extraction complete",
		"url", url,
		"platform", p,
		"price", result.Price,
		"hasImage", result.ImageURL != nil,
		"elapsed", time.Since(start),
	)
	return result, nil
}

func (e *Extractor) attempt(s Strategy, doc render.Document, url string) Partial {
	got := s.Attempt(doc)
	e.recorder.ObserveStrategy(s.Name(), !got.Empty())
	slog.Debug("strategy attempted",
		"url", url,
		"strategy", s.Name(),
		"title", got.Title != nil,
		"price", got.Price != nil,
		"image", got.ImageURL != nil,
	)
	return got
}
