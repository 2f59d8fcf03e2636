package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomarket/catalog-service/internal/platform/metrics"
)

// Metrics observes request latency per route and counts error responses.
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.APILatency.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(startTime).Seconds())

		if status := c.Writer.Status(); status >= 400 {
			m.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
	}
}
