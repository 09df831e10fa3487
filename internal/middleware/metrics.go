package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/temcen/animerec/internal/metrics"
)

// HTTPMetrics counts requests and their latency by route template, so /ui/category/:name is
// one series whatever the category.
func HTTPMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	requests := metrics.RegisterOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"}))

	duration := metrics.RegisterOrExisting(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
	}, []string{"method", "endpoint"}))

	active := metrics.RegisterOrExisting(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_active_requests",
		Help: "Number of HTTP requests being served",
	}))

	return func(c *gin.Context) {
		start := time.Now()

		active.Inc()
		defer active.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requests.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
