package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RegionValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmap_region_validations_total",
		Help: "Region create/update validations by outcome (accepted, conflict, invalid, not_found, error)",
	}, []string{"outcome"})
	DeletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmap_deletions_total",
		Help: "Delete requests by entity and outcome (committed, blocked, not_found, rolled_back)",
	}, []string{"entity", "outcome"})
	FloorCascadesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusmap_floor_cascades_total",
		Help: "Floors removed because their last room was deleted",
	})
	LockWaitMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusmap_region_lock_wait_ms",
		Help:    "Time spent waiting for the region write lock in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(RegionValidationsTotal)
	prometheus.MustRegister(DeletionsTotal)
	prometheus.MustRegister(FloorCascadesTotal)
	prometheus.MustRegister(LockWaitMs)
}

// Handler exposes the registered metrics for scraping at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
