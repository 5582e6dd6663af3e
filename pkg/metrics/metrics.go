package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts result cache lookups by result (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"result"},
	)

	// Predictions counts classifier predictions by outcome label (0|1|error).
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_predictions_total",
			Help: "Total number of classifier predictions",
		},
		[]string{"outcome"},
	)

	// ModelTrainings counts forest trainings.
	ModelTrainings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glucorisk_model_trainings_total",
			Help: "Total number of model trainings",
		},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glucorisk_model_training_seconds",
			Help:    "Time spent encoding the dataset and fitting the forest",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PoolInFlight tracks tasks currently running on the worker pool.
	PoolInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "glucorisk_worker_pool_in_flight",
			Help: "Number of tasks running on the worker pool",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glucorisk_api_latency_seconds",
			Help:    "HTTP endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
