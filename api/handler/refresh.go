package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/refresh"
)

// RefreshRunner runs one refresh batch over the whole watchlist.
// refresh.Refresher implements it.
type RefreshRunner interface {
	Run(ctx context.Context) (models.RefreshReport, error)
}

// Refresh returns a handler for POST /api/v1/refresh.
//
// The batch runs synchronously. It is detached from the request context so
// a client that hangs up does not abort a half-done batch.
func Refresh(runner RefreshRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := runner.Run(context.WithoutCancel(c.Request.Context()))
		if errors.Is(err, refresh.ErrRefreshInProgress) {
			respondError(c, models.NewScrapeError(models.ErrCodeRefreshInProgress,
				"a refresh is already running", err))
			return
		}
		if errors.Is(err, refresh.ErrClosed) {
			respondError(c, models.NewScrapeError(models.ErrCodeShuttingDown,
				"the service is shutting down", err))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		updates := report.Outcomes
		if updates == nil {
			updates = []models.RefreshOutcome{}
		}
		c.JSON(http.StatusOK, models.RefreshResponse{
			Success:    true,
			Updates:    updates,
			Updated:    report.Updated,
			Alerts:     report.Alerts,
			Failed:     report.Failed,
			DurationMs: report.Duration.Milliseconds(),
		})
	}
}
