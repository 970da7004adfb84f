package services

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_runs_total",
			Help: "Total number of pipeline runs by outcome.",
		},
		[]string{"status"},
	)
	statisticsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_statistics_inserted_total",
			Help: "Total number of daily statistics inserted.",
		},
		[]string{"source"},
	)
	statisticsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_statistics_skipped_total",
			Help: "Total number of observations skipped because the day was already loaded.",
		},
		[]string{"source"},
	)
	bindingMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_binding_misses_total",
			Help: "Total number of statistics groups dropped without a bound episode.",
		},
		[]string{"source"},
	)
	countriesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_countries_created_total",
			Help: "Total number of countries inserted by reconciliation.",
		},
	)
	countriesEnriched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_countries_enriched_total",
			Help: "Total number of countries whose missing attributes were filled.",
		},
	)
	lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "etl_last_success_timestamp_seconds",
			Help: "Unix time of the last successful pipeline run.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		statisticsInserted,
		statisticsSkipped,
		bindingMisses,
		countriesCreated,
		countriesEnriched,
		lastSuccess,
	)
}
