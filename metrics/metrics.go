// Package metrics exposes Prometheus instrumentation for extraction, refresh
// batches and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/pricewatch/models"
)

const namespace = "pricewatch"

// Collector owns every metric of the service. It satisfies extract.Recorder
// and refresh.Recorder.
type Collector struct {
	registry *prometheus.Registry

	// Extraction metrics
	strategyAttempts *prometheus.CounterVec
	extractions      *prometheus.CounterVec
	extractionTime   *prometheus.HistogramVec

	// Refresh metrics
	refreshItems    *prometheus.CounterVec
	refreshRuns     prometheus.Counter
	refreshDuration prometheus.Histogram
	trackedItems    prometheus.Gauge

	// HTTP metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all metrics on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers all metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		strategyAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extract",
				Name:      "strategy_attempts_total",
				Help:      "Strategy invocations by strategy and whether they contributed a field",
			},
			[]string{"strategy", "contributed"},
		),
		extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extract",
				Name:      "extractions_total",
				Help:      "Extractions by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),
		extractionTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "extract",
				Name:      "duration_seconds",
				Help:      "Wall-clock time of one extraction including page load",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"platform"},
		),

		refreshItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "items_total",
				Help:      "Refreshed items by outcome status",
			},
			[]string{"status"},
		),
		refreshRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Completed refresh batches",
		}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of one refresh batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		trackedItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_items",
			Help:      "Items on the watchlist at the last refresh",
		}),

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (c *Collector) ObserveStrategy(strategy string, contributed bool) {
	c.strategyAttempts.WithLabelValues(strategy, strconv.FormatBool(contributed)).Inc()
}

func (c *Collector) ObserveExtraction(platform models.Platform, outcome string, elapsed time.Duration) {
	c.extractions.WithLabelValues(string(platform), outcome).Inc()
	c.extractionTime.WithLabelValues(string(platform)).Observe(elapsed.Seconds())
}

// ObserveRefresh records a finished batch.
func (c *Collector) ObserveRefresh(report models.RefreshReport) {
	c.refreshRuns.Inc()
	c.refreshDuration.Observe(report.Duration.Seconds())
	c.trackedItems.Set(float64(len(report.Outcomes)))
	for _, o := range report.Outcomes {
		c.refreshItems.WithLabelValues(string(o.Status)).Inc()
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
