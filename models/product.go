package models

import "time"

// Platform is the closed set of retailers a product URL can belong to.
type Platform string

const (
	PlatformBigGo   Platform = "BigGo"
	PlatformMomo    Platform = "Momo"
	PlatformPChome  Platform = "PChome"
	PlatformShopee  Platform = "Shopee"
	PlatformUnknown Platform = "unknown"
)

// ExtractionResult is the normalized record produced for one product URL.
//
// Price is in whole currency units. A zero Price means no strategy found a
// usable price; it is never a legitimate free product.
type ExtractionResult struct {
	Title    string   `json:"title"`
	Price    int      `json:"price"`
	ImageURL *string  `json:"image_url"`
	Platform Platform `json:"platform"`
}

// HasPrice reports whether the extraction found a positive price.
func (r *ExtractionResult) HasPrice() bool {
	return r != nil && r.Price > 0
}

// TrackedItem is a product on the watchlist.
type TrackedItem struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	CurrentPrice int       `json:"current_price"`
	TargetPrice  *int      `json:"target_price"`
	ImageURL     *string   `json:"image_url"`
	Platform     Platform  `json:"platform"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PricePoint is one row of a product's price history.
type PricePoint struct {
	Price     int       `json:"price"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// ItemDetail is a tracked item together with its history, newest first.
type ItemDetail struct {
	TrackedItem
	History []PricePoint `json:"history"`
}

// RefreshStatus classifies the outcome of refreshing one item.
type RefreshStatus string

const (
	RefreshUpdated RefreshStatus = "updated"
	RefreshAlert   RefreshStatus = "alert"
	RefreshFailed  RefreshStatus = "failed"
)

// RefreshOutcome reports what happened to one item during a refresh batch.
type RefreshOutcome struct {
	ItemID int64         `json:"id"`
	Status RefreshStatus `json:"status"`
	Title  string        `json:"title,omitempty"`
}

// RefreshReport summarises a whole refresh batch.
type RefreshReport struct {
	Outcomes []RefreshOutcome `json:"updates"`
	Updated  int              `json:"updated"`
	Alerts   int              `json:"alerts"`
	Failed   int              `json:"failed"`
	Duration time.Duration    `json:"-"`
}

// Add appends an outcome and bumps the matching counter.
func (r *RefreshReport) Add(o RefreshOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case RefreshUpdated:
		r.Updated++
	case RefreshAlert:
		r.Alerts++
	case RefreshFailed:
		r.Failed++
	}
}
