// Package refresh re-extracts every tracked item, records new prices and
// raises alerts when a price reaches its target.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/notify"
)

// DefaultPacing is the pause between two consecutive items.
const DefaultPacing = 2 * time.Second

var (
	// ErrRefreshInProgress is returned by Run while another run is active.
	ErrRefreshInProgress = errors.New("refresh: a refresh is already running")

	// ErrClosed is returned by Run after Shutdown.
	ErrClosed = errors.New("refresh: refresher is shut down")
)

// Extractor reads the current product fields of a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}

// Store is the persistence the refresher needs.
type Store interface {
	List(ctx context.Context) ([]models.TrackedItem, error)
	RecordPrice(ctx context.Context, id int64, price int) error
}

// Recorder observes finished batches. metrics.Collector implements it.
type Recorder interface {
	ObserveRefresh(report models.RefreshReport)
}

// Refresher runs refresh batches. Items within a batch are processed
// strictly one after another.
type Refresher struct {
	extractor Extractor
	store     Store
	notifier  notify.Notifier
	recorder  Recorder
	pacing    time.Duration

	// slot holds one token while a Run is active.
	slot     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithPacing sets the pause between items. Zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(r *Refresher) {
		if d >= 0 {
			r.pacing = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Refresher) { r.recorder = rec }
}

func New(extractor Extractor, store Store, notifier notify.Notifier, opts ...Option) *Refresher {
	if notifier == nil {
		notifier = notify.Log{}
	}
	r := &Refresher{
		extractor: extractor,
		store:     store,
		notifier:  notifier,
		pacing:    DefaultPacing,
		slot:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the whole watchlist and refreshes it. Only one Run executes at
// a time; a concurrent call returns ErrRefreshInProgress. A running batch
// is cancelled by Shutdown even when ctx itself never ends.
func (r *Refresher) Run(ctx context.Context) (models.RefreshReport, error) {
	select {
	case <-r.stop:
		return models.RefreshReport{}, ErrClosed
	default:
	}
	select {
	case r.slot <- struct{}{}:
	default:
		return models.RefreshReport{}, ErrRefreshInProgress
	}
	defer func() { <-r.slot }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	items, err := r.store.List(ctx)
	if err != nil {
		return models.RefreshReport{}, fmt.Errorf("load watchlist: %w", err)
	}
	return r.RefreshAll(ctx, items), nil
}

// Shutdown cancels the active run, if any, and waits until it has returned
// or ctx ends. Every later Run returns ErrClosed. Call it once.
func (r *Refresher) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stop) })
	select {
	case r.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshAll refreshes items in order and reports one outcome per item, in
// input order. A failing item never stops the batch. Once ctx is done the
// remaining items are reported failed without being loaded.
func (r *Refresher) RefreshAll(ctx context.Context, items []models.TrackedItem) models.RefreshReport {
	start := time.Now()
	report := models.RefreshReport{Outcomes: make([]models.RefreshOutcome, 0, len(items))}

	slog.Info("refresh started", "items", len(items))

	for i, item := range items {
		if i > 0 && !r.pause(ctx) {
			slog.Warn("refresh interrupted", "remaining", len(items)-i, "error", ctx.Err())
			for _, rest := range items[i:] {
				report.Add(models.RefreshOutcome{ItemID: rest.ID, Status: models.RefreshFailed})
			}
			break
		}
		report.Add(r.refreshItem(ctx, item))
	}

	report.Duration = time.Since(start)
	slog.Info("refresh finished",
		"updated", report.Updated,
		"alerts", report.Alerts,
		"failed", report.Failed,
		"elapsed", report.Duration,
	)
	if r.recorder != nil {
		r.recorder.ObserveRefresh(report)
	}
	return report
}

// pause waits the pacing interval. It returns false if ctx ends first.
func (r *Refresher) pause(ctx context.Context) bool {
	if r.pacing <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(r.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// refreshItem never panics: a panicking collaborator fails only this item.
func (r *Refresher) refreshItem(ctx context.Context, item models.TrackedItem) (out models.RefreshOutcome) {
	failed := models.RefreshOutcome{ItemID: item.ID, Status: models.RefreshFailed}
	defer func() {
		if p := recover(); p != nil {
			slog.Error("refresh item panicked", "id", item.ID, "url", item.URL, "panic", p)
			out = failed
		}
	}()

	result, err := r.extractor.Extract(ctx, item.URL)
	if err != nil {
		if models.IsExtractionFailure(err) {
			slog.Warn("refresh extraction failed", "id", item.ID, "url", item.URL, "error", err)
		} else {
			slog.Error("refresh extraction error", "id", item.ID, "url", item.URL, "error", err)
		}
		return failed
	}
	if !result.HasPrice() {
		slog.Warn("refresh found no price", "id", item.ID, "url", item.URL)
		return failed
	}

	if err := r.store.RecordPrice(ctx, item.ID, result.Price); err != nil {
		slog.Error("failed to record price", "id", item.ID, "price", result.Price, "error", err)
		return failed
	}

	title := result.Title
	if title == "" {
		title = item.Title
	}

	if item.TargetPrice != nil && result.Price <= *item.TargetPrice {
		r.alert(ctx, item.ID, notify.Alert{
			Title:       title,
			NewPrice:    result.Price,
			TargetPrice: *item.TargetPrice,
			URL:         item.URL,
		})
		return models.RefreshOutcome{ItemID: item.ID, Status: models.RefreshAlert, Title: title}
	}

	return models.RefreshOutcome{ItemID: item.ID, Status: models.RefreshUpdated, Title: title}
}

// alert hands a to the notifier. Delivery errors and panics are logged and
// otherwise ignored.
func (r *Refresher) alert(ctx context.Context, id int64, a notify.Alert) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("alert delivery panicked", "id", id, "url", a.URL, "panic", p)
		}
	}()
	if err := r.notifier.Notify(ctx, a); err != nil {
		slog.Error("alert delivery failed", "id", id, "url", a.URL, "error", err)
	}
}
