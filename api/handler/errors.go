package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
)

// respondError maps an error to its HTTP status code and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	status := mapErrorToStatus(scrapeErr)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeRenderFailure,
		models.ErrCodeScrapeError,
		models.ErrCodeZeroPrice,
		models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeDuplicateTracking, models.ErrCodeRefreshInProgress:
		return http.StatusConflict // 409
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeShuttingDown:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

func invalidInput(msg string) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil)
}
