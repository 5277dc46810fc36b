package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/use-agent/pricewatch/models"
)

func TestCollector_Extraction(t *testing.T) {
	c := NewWithRegistry(prometheus.NewRegistry())

	c.ObserveStrategy("json_ld", true)
	c.ObserveStrategy("json_ld", true)
	c.ObserveStrategy("body_text", false)
	c.ObserveExtraction(models.PlatformMomo, "success", 2*time.Second)

	if got := testutil.ToFloat64(c.strategyAttempts.WithLabelValues("json_ld", "true")); got != 2 {
		t.Errorf("json_ld contributed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.strategyAttempts.WithLabelValues("body_text", "false")); got != 1 {
		t.Errorf("body_text misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.extractions.WithLabelValues("Momo", "success")); got != 1 {
		t.Errorf("extractions = %v, want 1", got)
	}
}

func TestCollector_Refresh(t *testing.T) {
	c := NewWithRegistry(prometheus.NewRegistry())

	var report models.RefreshReport
	report.Add(models.RefreshOutcome{ItemID: 1, Status: models.RefreshUpdated})
	report.Add(models.RefreshOutcome{ItemID: 2, Status: models.RefreshFailed})
	report.Add(models.RefreshOutcome{ItemID: 3, Status: models.RefreshAlert})
	report.Duration = 5 * time.Second
	c.ObserveRefresh(report)

	if got := testutil.ToFloat64(c.refreshRuns); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.trackedItems); got != 3 {
		t.Errorf("tracked items = %v, want 3", got)
	}
	for _, status := range []string{"updated", "failed", "alert"} {
		if got := testutil.ToFloat64(c.refreshItems.WithLabelValues(status)); got != 1 {
			t.Errorf("%s = %v, want 1", status, got)
		}
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewWithRegistry(prometheus.NewRegistry())
	c.ObserveRequest(http.MethodPost, "/api/v1/products", http.StatusCreated, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	want := `pricewatch_http_requests_total{method="POST",route="/api/v1/products",status_code="201"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("exposition missing %q", want)
	}
}
