package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/metrics"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/refresh"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockProducts is a hand-written ProductService.
type mockProducts struct {
	trackFn  func(url string, target *int) (*models.TrackedItem, error)
	items    []models.TrackedItem
	detail   *models.ItemDetail
	getErr   error
	updateFn func(id int64, target *int) (*models.TrackedItem, error)
	deleteFn func(id int64) error
}

func (m *mockProducts) Track(_ context.Context, url string, target *int) (*models.TrackedItem, error) {
	return m.trackFn(url, target)
}

func (m *mockProducts) List(context.Context) ([]models.TrackedItem, error) {
	return m.items, nil
}

func (m *mockProducts) Get(context.Context, int64) (*models.ItemDetail, error) {
	return m.detail, m.getErr
}

func (m *mockProducts) UpdateTarget(_ context.Context, id int64, target *int) (*models.TrackedItem, error) {
	return m.updateFn(id, target)
}

func (m *mockProducts) Delete(_ context.Context, id int64) error {
	return m.deleteFn(id)
}

type mockRefresher struct {
	report models.RefreshReport
	err    error
}

func (m *mockRefresher) Run(context.Context) (models.RefreshReport, error) {
	return m.report, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func setupRouter(t *testing.T, cfg *config.Config, deps Deps) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if deps.Store == nil {
		deps.Store = mockPinger{}
	}
	if deps.Products == nil {
		deps.Products = &mockProducts{}
	}
	if deps.Refresher == nil {
		deps.Refresher = &mockRefresher{}
	}
	deps.RendererName = "fake"
	deps.StartTime = time.Now()
	return NewRouter(ctx, cfg, deps)
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error
}

func TestTrackProduct(t *testing.T) {
	img := "https://img.example/k.jpg"
	products := &mockProducts{
		trackFn: func(url string, target *int) (*models.TrackedItem, error) {
			switch {
			case strings.Contains(url, "dup"):
				return nil, models.NewScrapeError(models.ErrCodeDuplicateTracking, "already tracked", nil)
			case strings.Contains(url, "timeout"):
				return nil, models.NewScrapeError(models.ErrCodeRenderFailure, "page load timed out", context.DeadlineExceeded)
			case strings.Contains(url, "free"):
				return nil, models.NewScrapeError(models.ErrCodeZeroPrice, "no price", nil)
			}
			return &models.TrackedItem{
				ID: 7, URL: url, Title: "Kettle", CurrentPrice: 1990,
				TargetPrice: target, ImageURL: &img, Platform: models.PlatformMomo,
			}, nil
		},
	}
	r := setupRouter(t, testConfig(), Deps{Products: products})

	t.Run("created", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/products", `{"url":"https://www.momoshop.com.tw/goods/1","target_price":1500}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(7), resp["id"])
		assert.Equal(t, "Kettle", resp["title"])
		assert.Equal(t, float64(1990), resp["price"])
		assert.Equal(t, img, resp["image_url"])
		assert.Equal(t, "Momo", resp["platform"])
	})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate", `{"url":"https://shop.example/dup"}`, http.StatusConflict, models.ErrCodeDuplicateTracking},
		{"render failure", `{"url":"https://shop.example/timeout"}`, http.StatusBadRequest, models.ErrCodeRenderFailure},
		{"zero price", `{"url":"https://shop.example/free"}`, http.StatusBadRequest, models.ErrCodeZeroPrice},
		{"missing url", `{}`, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"not a url", `{"url":"nope"}`, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"bad target", `{"url":"https://shop.example/a","target_price":0}`, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"malformed json", `{"url":`, http.StatusBadRequest, models.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/products", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestListProducts(t *testing.T) {
	products := &mockProducts{items: []models.TrackedItem{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}}
	r := setupRouter(t, testConfig(), Deps{Products: products})

	w := do(r, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.TrackedItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestGetProduct(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	products := &mockProducts{detail: &models.ItemDetail{
		TrackedItem: models.TrackedItem{ID: 3, Title: "Fan", CurrentPrice: 800},
		History: []models.PricePoint{
			{Price: 800, ScrapedAt: now},
			{Price: 900, ScrapedAt: now.Add(-time.Hour)},
		},
	}}
	r := setupRouter(t, testConfig(), Deps{Products: products})

	w := do(r, http.MethodGet, "/api/v1/products/3", "")
	require.Equal(t, http.StatusOK, w.Code)

	var detail models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Fan", detail.Title)
	require.Len(t, detail.History, 2)
	assert.Equal(t, 800, detail.History[0].Price)

	w = do(r, http.MethodGet, "/api/v1/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	products.getErr = models.NewScrapeError(models.ErrCodeNotFound, "product not found", nil)
	w = do(r, http.MethodGet, "/api/v1/products/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	var gotTarget *int
	products := &mockProducts{
		updateFn: func(id int64, target *int) (*models.TrackedItem, error) {
			gotTarget = target
			return &models.TrackedItem{ID: id, TargetPrice: target}, nil
		},
		deleteFn: func(id int64) error {
			if id == 404 {
				return models.NewScrapeError(models.ErrCodeNotFound, "product not found", nil)
			}
			return nil
		},
	}
	r := setupRouter(t, testConfig(), Deps{Products: products})

	w := do(r, http.MethodPatch, "/api/v1/products/5", `{"target_price":750}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, gotTarget)
	assert.Equal(t, 750, *gotTarget)

	w = do(r, http.MethodPatch, "/api/v1/products/5", `{"target_price":null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, gotTarget)

	w = do(r, http.MethodDelete, "/api/v1/products/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api/v1/products/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefresh(t *testing.T) {
	var report models.RefreshReport
	report.Add(models.RefreshOutcome{ItemID: 1, Status: models.RefreshUpdated, Title: "A"})
	report.Add(models.RefreshOutcome{ItemID: 2, Status: models.RefreshAlert, Title: "B"})
	report.Add(models.RefreshOutcome{ItemID: 3, Status: models.RefreshFailed})

	runner := &mockRefresher{report: report}
	r := setupRouter(t, testConfig(), Deps{Refresher: runner})

	w := do(r, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"updates": [
			{"id": 1, "status": "updated", "title": "A"},
			{"id": 2, "status": "alert", "title": "B"},
			{"id": 3, "status": "failed"}
		],
		"updated": 1, "alerts": 1, "failed": 1, "duration_ms": 0
	}`, w.Body.String())

	runner.err = refresh.ErrRefreshInProgress
	w = do(r, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrCodeRefreshInProgress, decodeError(t, w).Code)

	runner.err = refresh.ErrClosed
	w = do(r, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeShuttingDown, decodeError(t, w).Code)

	runner.err = errors.New("db gone")
	w = do(r, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRefresh_EmptyWatchlist(t *testing.T) {
	r := setupRouter(t, testConfig(), Deps{Refresher: &mockRefresher{}})

	w := do(r, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Updates)
	assert.Empty(t, resp.Updates)
}

func TestHealth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}

	r := setupRouter(t, cfg, Deps{})
	w := do(r, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code, "health must not require auth")

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Store)
	assert.Equal(t, "fake", resp.Renderer)

	r = setupRouter(t, cfg, Deps{Store: mockPinger{err: errors.New("down")}})
	w = do(r, http.MethodGet, "/api/v1/health", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestAuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	r := setupRouter(t, cfg, Deps{Products: &mockProducts{}})

	w := do(r, http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/products", "", "X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := setupRouter(t, testConfig(), Deps{Metrics: m})

	do(r, http.MethodGet, "/api/v1/health", "")
	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pricewatch_http_requests_total{method="GET",route="/api/v1/health",status_code="200"} 1`)
}
