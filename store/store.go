// Package store persists the watchlist and its price history.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/use-agent/pricewatch/models"
)

var (
	// ErrNotFound is returned when no tracked item has the requested key.
	ErrNotFound = errors.New("store: item not found")

	// ErrDuplicate is returned when a URL is already tracked.
	ErrDuplicate = errors.New("store: url already tracked")
)

// NewItem is the data needed to start tracking a product. Its price becomes
// both the current price and the first history row.
type NewItem struct {
	URL         string
	Title       string
	Price       int
	TargetPrice *int
	ImageURL    *string
	Platform    models.Platform
}

// Store is the persistence contract used by the tracker and the refresher.
type Store interface {
	// Create inserts an item together with its first history row.
	Create(ctx context.Context, item NewItem) (models.TrackedItem, error)

	GetByURL(ctx context.Context, url string) (models.TrackedItem, error)
	Get(ctx context.Context, id int64) (models.TrackedItem, error)

	// List returns every tracked item, newest first.
	List(ctx context.Context) ([]models.TrackedItem, error)

	// History returns an item's price history, newest first.
	History(ctx context.Context, id int64) ([]models.PricePoint, error)

	// RecordPrice sets the current price and appends a history row.
	RecordPrice(ctx context.Context, id int64, price int) error

	// UpdateTarget replaces the alert threshold; nil clears it.
	UpdateTarget(ctx context.Context, id int64, target *int) (models.TrackedItem, error)

	// Delete removes an item and its history.
	Delete(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by driver ("sqlite" or "postgres") and
// applies the schema.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   *SQLStore
		err error
	)
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		s, err = OpenSQLite(ctx, dsn)
	case "postgres", "postgresql":
		s, err = OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
