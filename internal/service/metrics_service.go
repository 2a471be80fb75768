package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the reconciliation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runDuration     prometheus.Histogram
	runTotal        *prometheus.CounterVec
	pageMutations   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_run_duration_seconds",
		Help:    "Duration of sync runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total number of sync runs by result",
	}, []string{"result"})

	pageMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_page_mutations_total",
		Help: "Total number of page mutations by action",
	}, []string{"action"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runDuration, runTotal, pageMutations, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runDuration:     runDuration,
		runTotal:        runTotal,
		pageMutations:   pageMutations,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRun records the outcome of one reconciliation pass. err is the
// fatal run error, if any; per-item failures arrive through summary.Errors.
func (m *MetricsService) ObserveRun(summary models.SyncSummary, duration time.Duration, err error) {
	if m == nil {
		return
	}

	result := "success"
	switch {
	case err != nil:
		result = "error"
	case summary.Errors > 0:
		result = "partial"
	}

	m.runTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.pageMutations.WithLabelValues("create").Add(float64(summary.Created))
	m.pageMutations.WithLabelValues("update").Add(float64(summary.Updated))
	m.pageMutations.WithLabelValues("archive").Add(float64(summary.Deleted))
	m.pageMutations.WithLabelValues("error").Add(float64(summary.Errors))
}
