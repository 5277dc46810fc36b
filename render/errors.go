package render

import (
	"context"
	"errors"

	"github.com/use-agent/pricewatch/models"
)

// categorizeError wraps raw load errors into typed ScrapeErrors. Every load
// failure is a render failure; the message tells timeouts apart.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeRenderFailure, "page load timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeRenderFailure, "page load canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeRenderFailure, msg, err)
	}
}
