// Package extract turns a rendered product page into a normalized
// ExtractionResult by running a ranked set of strategies and merging their
// partial results.
package extract

import (
	"strings"

	"github.com/use-agent/pricewatch/render"
)

// Partial is what a single strategy found. A nil field means the strategy
// had nothing to say about it.
type Partial struct {
	Title    *string
	Price    *int
	ImageURL *string
}

// Empty reports whether the partial carries no field at all.
func (p Partial) Empty() bool {
	return p.Title == nil && p.Price == nil && p.ImageURL == nil
}

// Merge fills every field that is absent in dst from src. Fields already
// present in dst are never overwritten.
func Merge(dst, src Partial) Partial {
	if dst.Title == nil {
		dst.Title = src.Title
	}
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.ImageURL == nil {
		dst.ImageURL = src.ImageURL
	}
	return dst
}

// Strategy is one independent way of reading product fields from a page.
// Strategies never fail: anything they cannot read is left absent.
type Strategy interface {
	Name() string
	Attempt(doc render.Document) Partial
}

// nonEmpty returns a pointer to the trimmed s, or nil if it is blank.
func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// positive returns a pointer to n, or nil unless n > 0.
func positive(n int, ok bool) *int {
	if !ok || n <= 0 {
		return nil
	}
	return &n
}
