// Package render loads product pages and exposes the rendered result as a
// read-only Document for the extraction strategies.
package render

import (
	"context"
	"time"
)

// Renderer loads a URL and returns its rendered document. Each call owns its
// own session; the caller must Close the returned Document.
type Renderer interface {
	// Name identifies the renderer in logs and health output.
	Name() string

	Load(ctx context.Context, url string, opts LoadOptions) (Document, error)
}

// LoadOptions tunes a single Load call.
type LoadOptions struct {
	// Timeout bounds navigation plus rendering.
	Timeout time.Duration

	// WaitSelector, when set, makes the renderer wait up to WaitTimeout for
	// the selector to appear. A miss is not an error.
	WaitSelector string
	WaitTimeout  time.Duration
}

// Document is the read-only view of a rendered page.
type Document interface {
	// QueryText returns the trimmed text of the first element matching
	// selector. ok is false when nothing matches.
	QueryText(selector string) (text string, ok bool)

	// QueryAttribute returns attr of the first element matching selector.
	QueryAttribute(selector, attr string) (value string, ok bool)

	// QueryAllText returns the raw text of every element matching selector,
	// in document order.
	QueryAllText(selector string) []string

	// FullText is the visible text of the page body.
	FullText() string

	// FullMarkup is the serialized HTML of the rendered page.
	FullMarkup() string

	// PageTitle is the browser-level document title.
	PageTitle() string

	// URL is the final URL after redirects.
	URL() string

	// Close releases the session that produced the document.
	Close() error
}
