package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeRenderFailure     = "RENDER_FAILURE"
	ErrCodeScrapeError       = "SCRAPE_ERROR"
	ErrCodeZeroPrice         = "ZERO_PRICE"
	ErrCodeDuplicateTracking = "DUPLICATE_TRACKING"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeRefreshInProgress = "REFRESH_IN_PROGRESS"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeShuttingDown      = "SHUTTING_DOWN"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsExtractionFailure reports whether err means no document could be
// rendered or scraped for a URL.
func IsExtractionFailure(err error) bool {
	switch CodeOf(err) {
	case ErrCodeRenderFailure, ErrCodeScrapeError:
		return true
	default:
		return false
	}
}
