package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/use-agent/pricewatch/models"
)

// apiClient calls the pricewatch HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{baseURL: baseURL, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

// apiError is a structured error returned by the API.
type apiError struct {
	Status int
	Detail models.ErrorDetail
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
}

// do sends a request and decodes a 2xx JSON body into out. Non-2xx answers
// become *apiError.
func (a *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == nil {
			return &apiError{Status: resp.StatusCode, Detail: models.ErrorDetail{
				Code:    models.ErrCodeInternal,
				Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			}}
		}
		return &apiError{Status: resp.StatusCode, Detail: *errResp.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (a *apiClient) track(ctx context.Context, req models.TrackRequest) (*models.TrackResponse, error) {
	var resp models.TrackResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/products", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *apiClient) list(ctx context.Context) ([]models.TrackedItem, error) {
	var items []models.TrackedItem
	if err := a.do(ctx, http.MethodGet, "/api/v1/products", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *apiClient) get(ctx context.Context, id int64) (*models.ItemDetail, error) {
	var detail models.ItemDetail
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (a *apiClient) refresh(ctx context.Context) (*models.RefreshResponse, error) {
	var resp models.RefreshResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
