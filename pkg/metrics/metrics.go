// Package metrics provides Prometheus metrics for the prediction engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	registry *prometheus.Registry

	// Prediction path
	predictionsServed   *prometheus.CounterVec // labeled by fusion source: fused|fallback
	predictionItems     prometheus.Histogram
	predictionLatency   prometheus.Histogram
	schemaMismatches    prometheus.Counter
	overallRiskObserved prometheus.Histogram

	// Training path
	trainingRuns     prometheus.Counter
	trainingRejected prometheus.Counter
	modelOutcomes    *prometheus.CounterVec // model, outcome: trained|failed|insufficient_data
	trainingDuration *prometheus.HistogramVec
	modelsTrained    prometheus.Gauge

	// Spatial scanner
	heatmapRequests prometheus.Counter
	heatmapPoints   prometheus.Histogram
	riskAreasFound  prometheus.Histogram

	// External collaborators
	upstreamFailures   *prometheus.CounterVec // component: weather|observations
	syntheticFallbacks *prometheus.CounterVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager = newManager() //nolint:gochecknoglobals // singleton metrics manager

func newManager() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,

		predictionsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_predictions_total",
			Help: "Prediction requests served, labeled by fusion source.",
		}, []string{"source"}),
		predictionItems: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_prediction_items",
			Help:    "Number of prediction items returned per request.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		predictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_prediction_latency_seconds",
			Help:    "End-to-end latency of the prediction path.",
			Buckets: prometheus.DefBuckets,
		}),
		schemaMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "foresight_schema_mismatches_total",
			Help: "Feature vectors rejected for not matching the training schema.",
		}),
		overallRiskObserved: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_overall_risk",
			Help:    "Distribution of overall risk scores returned to callers.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),

		trainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "foresight_training_runs_total",
			Help: "Training runs started.",
		}),
		trainingRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "foresight_training_rejected_total",
			Help: "Training requests rejected because a run was already in flight.",
		}),
		modelOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_model_training_outcomes_total",
			Help: "Per-model training outcomes.",
		}, []string{"model", "outcome"}),
		trainingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foresight_model_training_duration_seconds",
			Help:    "Wall-clock duration of each model variant's training step.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		modelsTrained: factory.NewGauge(prometheus.GaugeOpts{
			Name: "foresight_models_trained",
			Help: "Number of model variants currently present in the registry.",
		}),

		heatmapRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "foresight_heatmap_requests_total",
			Help: "Heatmap generations requested.",
		}),
		heatmapPoints: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_heatmap_points",
			Help:    "Grid points evaluated per heatmap.",
			Buckets: prometheus.ExponentialBuckets(25, 4, 8),
		}),
		riskAreasFound: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_risk_areas_found",
			Help:    "Risk areas above threshold returned per scan.",
			Buckets: []float64{0, 1, 2, 5, 10, 25},
		}),

		upstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_upstream_failures_total",
			Help: "Failures of external collaborators, recovered locally.",
		}, []string{"component"}),
		syntheticFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_synthetic_fallbacks_total",
			Help: "Times a data source fell back to synthetic data.",
		}, []string{"component"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_http_requests_total",
			Help: "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foresight_http_request_duration_seconds",
			Help:    "HTTP request duration by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// GetRegistry exposes the registry for the metrics HTTP handler.
func GetRegistry() *prometheus.Registry { return globalManager.registry }

// Prediction path helpers.

func RecordPrediction(source string) { globalManager.predictionsServed.WithLabelValues(source).Inc() }
func ObservePredictionItems(n int)   { globalManager.predictionItems.Observe(float64(n)) }

func ObservePredictionLatency(s float64) { globalManager.predictionLatency.Observe(s) }

func RecordSchemaMismatch() { globalManager.schemaMismatches.Inc() }

func ObserveOverallRisk(score float64) { globalManager.overallRiskObserved.Observe(score) }

// Training path helpers.

func RecordTrainingRun()      { globalManager.trainingRuns.Inc() }
func RecordTrainingRejected() { globalManager.trainingRejected.Inc() }

func RecordModelOutcome(model, outcome string) {
	globalManager.modelOutcomes.WithLabelValues(model, outcome).Inc()
}

func ObserveTrainingDuration(model string, seconds float64) {
	globalManager.trainingDuration.WithLabelValues(model).Observe(seconds)
}

func UpdateModelsTrained(n int) { globalManager.modelsTrained.Set(float64(n)) }

// Spatial scanner helpers.

func RecordHeatmapRequest()       { globalManager.heatmapRequests.Inc() }
func ObserveHeatmapPoints(n int)  { globalManager.heatmapPoints.Observe(float64(n)) }
func ObserveRiskAreasFound(n int) { globalManager.riskAreasFound.Observe(float64(n)) }

// External collaborator helpers.

func RecordUpstreamFailure(component string) {
	globalManager.upstreamFailures.WithLabelValues(component).Inc()
}

func RecordSyntheticFallback(component string) {
	globalManager.syntheticFallbacks.WithLabelValues(component).Inc()
}

// HTTP helpers.

func RecordHTTPRequest(endpoint, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, status).Inc()
}

func ObserveHTTPDuration(endpoint string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
