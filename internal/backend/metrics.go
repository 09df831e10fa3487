package backend

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/temcen/animerec/internal/metrics"
)

type clientMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	return &clientMetrics{
		requests: metrics.RegisterOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animerec_backend_requests_total",
			Help: "Backend calls by endpoint and outcome (ok, transport_error, application_error)",
		}, []string{"endpoint", "outcome"})),
		latency: metrics.RegisterOrExisting(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "animerec_backend_request_duration_seconds",
			Help:    "Backend call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"})),
	}
}

func (m *clientMetrics) observe(endpoint string, seconds float64, err error) {
	outcome := "ok"
	switch err.(type) {
	case nil:
	case *ApplicationError:
		outcome = "application_error"
	default:
		outcome = "transport_error"
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.latency.WithLabelValues(endpoint).Observe(seconds)
}
