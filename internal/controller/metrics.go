package controller

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/temcen/animerec/internal/metrics"
)

type controllerMetrics struct {
	issued    *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	stale     prometheus.Counter
	titleLoad *prometheus.CounterVec
}

func newControllerMetrics(reg prometheus.Registerer) *controllerMetrics {
	return &controllerMetrics{
		issued: metrics.RegisterOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animerec_page_requests_total",
			Help: "Recommendation requests issued by the page controller, by action",
		}, []string{"action"})),
		rejected: metrics.RegisterOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animerec_page_validation_rejections_total",
			Help: "Page actions rejected before reaching the backend, by action",
		}, []string{"action"})),
		stale: metrics.RegisterOrExisting(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animerec_page_stale_responses_total",
			Help: "Backend responses discarded because a newer request was issued",
		})),
		titleLoad: metrics.RegisterOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animerec_title_cache_loads_total",
			Help: "Title cache load attempts by outcome",
		}, []string{"outcome"})),
	}
}
