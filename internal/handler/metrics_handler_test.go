package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
	"github.com/vinceyvincey/google-calendar-sync/internal/service"
)

func metricsTestRouter(metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewMetricsHandler(metrics)
	router.GET("/health", h.Health)
	router.GET("/metrics", h.Prometheus)
	return router
}

func TestHealth_Payload(t *testing.T) {
	router := metricsTestRouter(nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, recorder.Body.String())
}

func TestPrometheus_ServesRegisteredMetrics(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/status", http.StatusOK, 12*time.Millisecond)
	metrics.ObserveRun(models.SyncSummary{Created: 1}, time.Second, nil)

	router := metricsTestRouter(metrics)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "http_requests_total")
	assert.Contains(t, recorder.Body.String(), "sync_runs_total")
}

func TestPrometheus_UnavailableWithoutService(t *testing.T) {
	router := metricsTestRouter(nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
