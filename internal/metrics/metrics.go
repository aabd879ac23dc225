// Package metrics exposes Prometheus collectors for dataset fetches and map loads.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DatasetFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "career_mapper_dataset_fetch_total",
		Help: "Statistic dataset fetches by result (ok, error, malformed)",
	}, []string{"result"})
	DatasetFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "career_mapper_dataset_fetch_duration_ms",
		Help:    "Statistic dataset fetch and decode duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "career_mapper_cache_lookups_total",
		Help: "Dataset cache lookups by outcome (hit, miss, error)",
	}, []string{"outcome"})
	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "career_mapper_loads_total",
		Help: "Statistic selections by final status",
	}, []string{"statistic", "status"})
	RowsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "career_mapper_rows_skipped_total",
		Help: "Dataset rows whose region id matched no region",
	}, []string{"statistic"})
	HoverTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "career_mapper_hover_total",
		Help: "Hover events by kind (in, out, point)",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(DatasetFetchTotal)
	prometheus.MustRegister(DatasetFetchDurationMs)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(RowsSkippedTotal)
	prometheus.MustRegister(HoverTotal)
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
