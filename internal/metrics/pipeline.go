package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline, augmentation and geocoding metrics.
var (
	// PipelineRecordsTotal counts records per stage: fetched, normalized, skipped, loaded.
	PipelineRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_records_total",
			Help:      "Records seen by each ETL stage",
		},
		[]string{"stage"},
	)

	PipelineBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_batch_duration_seconds",
			Help:      "Duration of one loader batch write",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RegistryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Registry page requests by HTTP status",
		},
		[]string{"status"},
	)

	// AugmentRecordsTotal counts augmentation outcomes per step: ok, failed, skipped.
	AugmentRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "augment_records_total",
			Help:      "Records processed by augmentation runs",
		},
		[]string{"step", "result"},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache hits and misses",
		},
		[]string{"result"},
	)

	GeocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by outcome",
		},
		[]string{"status"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers the pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRecordsTotal)
	prometheus.MustRegister(PipelineBatchDuration)
	prometheus.MustRegister(RegistryRequestsTotal)
	prometheus.MustRegister(AugmentRecordsTotal)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	pipelineMetricsRegistered = true
}
