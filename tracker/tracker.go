// Package tracker implements the watchlist use cases: adding a product,
// listing, inspecting, retargeting and removing tracked items.
package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/store"
)

// Extractor reads the current product fields of a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}

// Service coordinates extraction and persistence for the watchlist.
type Service struct {
	extractor Extractor
	store     store.Store
}

func New(extractor Extractor, st store.Store) *Service {
	return &Service{extractor: extractor, store: st}
}

// Track starts watching url.
//
// An already tracked URL is rejected before any page load. A page without a
// usable price is rejected too, so every tracked item starts with a real
// price.
func (s *Service) Track(ctx context.Context, url string, target *int) (*models.TrackedItem, error) {
	if target != nil && *target <= 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "target_price must be positive", nil)
	}

	// ── 1. Duplicate pre-check ────────────────────────────────────────
	_, err := s.store.GetByURL(ctx, url)
	switch {
	case err == nil:
		return nil, duplicate(url)
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal("failed to look up product", err)
	}

	// ── 2. Extract ────────────────────────────────────────────────────
	result, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, err
	}
	if !result.HasPrice() {
		return nil, models.NewScrapeError(models.ErrCodeZeroPrice,
			"no price found on the product page", nil)
	}

	// ── 3. Persist ────────────────────────────────────────────────────
	item, err := s.store.Create(ctx, store.NewItem{
		URL:         url,
		Title:       result.Title,
		Price:       result.Price,
		TargetPrice: target,
		ImageURL:    result.ImageURL,
		Platform:    result.Platform,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, duplicate(url)
	}
	if err != nil {
		return nil, internal("failed to save product", err)
	}

	slog.Info("product tracked",
		"id", item.ID,
		"url", url,
		"platform", item.Platform,
		"price", item.CurrentPrice,
	)
	return &item, nil
}

// List returns every tracked item, newest first.
func (s *Service) List(ctx context.Context) ([]models.TrackedItem, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, internal("failed to list products", err)
	}
	return items, nil
}

// Get returns an item with its price history, newest first.
func (s *Service) Get(ctx context.Context, id int64) (*models.ItemDetail, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load product")
	}
	history, err := s.store.History(ctx, id)
	if err != nil {
		return nil, internal("failed to load price history", err)
	}
	return &models.ItemDetail{TrackedItem: item, History: history}, nil
}

// UpdateTarget replaces the alert threshold; nil clears it.
func (s *Service) UpdateTarget(ctx context.Context, id int64, target *int) (*models.TrackedItem, error) {
	if target != nil && *target <= 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "target_price must be positive", nil)
	}
	item, err := s.store.UpdateTarget(ctx, id, target)
	if err != nil {
		return nil, mapStoreError(err, "failed to update target price")
	}
	return &item, nil
}

// Delete stops tracking an item and drops its history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err, "failed to delete product")
	}
	slog.Info("product untracked", "id", id)
	return nil
}

func duplicate(url string) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeDuplicateTracking,
		"product is already being tracked: "+url, store.ErrDuplicate)
}

func internal(msg string, err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeInternal, msg, err)
}

func mapStoreError(err error, msg string) *models.ScrapeError {
	if errors.Is(err, store.ErrNotFound) {
		return models.NewScrapeError(models.ErrCodeNotFound, "product not found", err)
	}
	return internal(msg, err)
}
