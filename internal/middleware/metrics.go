package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinceyvincey/google-calendar-sync/internal/service"
)

// Metrics returns middleware that records request metrics. The scrape
// endpoint itself is not instrumented; on a low-traffic webhook service the
// scraper would otherwise account for nearly every sample.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
