// Package metrics provides recommendation pipeline metrics for observability
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the upload to results
// pipeline and the external services it calls
type PipelineMetrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	pipelineRunsTotal   *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	recommendedPlants   prometheus.Histogram
	recommendAttempts   prometheus.Histogram
	soilClassifications *prometheus.CounterVec

	// External service metrics
	geolocationLookupsTotal *prometheus.CounterVec
	geolocationDuration     prometheus.Histogram
	modelCallsTotal         *prometheus.CounterVec
	modelCallDuration       *prometheus.HistogramVec
	daylightTotal           *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *PipelineMetrics) initMetrics() {
	m.pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soilplanner_pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"outcome"}, // outcome: success, degraded, error
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soilplanner_pipeline_stage_duration_seconds",
			Help:    "Time taken by each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
		},
		[]string{"stage", "outcome"},
	)

	m.recommendedPlants = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soilplanner_recommended_plants",
			Help:    "Number of plants in a successful recommendation",
			Buckets: []float64{0, 1, 3, 5, 10, 20},
		},
	)

	m.recommendAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soilplanner_recommend_attempts",
			Help:    "Model calls needed per recommendation",
			Buckets: []float64{1, 2, 3, 5},
		},
	)

	m.soilClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soilplanner_soil_classifications_total",
			Help: "Total number of soil classifications",
		},
		[]string{"outcome"}, // outcome: success, unknown
	)

	m.geolocationLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soilplanner_geolocation_lookups_total",
			Help: "Total number of geolocation lookups",
		},
		[]string{"outcome"}, // outcome: success, cache_hit, transport_error, lookup_failed, parse_error, rate_limited
	)

	m.geolocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soilplanner_geolocation_lookup_duration_seconds",
			Help:    "Time taken for uncached geolocation lookups",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount10), // 10ms to ~5s
		},
	)

	m.modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soilplanner_model_calls_total",
			Help: "Total number of generative model calls",
		},
		[]string{"model", "outcome"}, // outcome: success, empty, error
	)

	m.modelCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soilplanner_model_call_duration_seconds",
			Help:    "Time taken for generative model calls",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10), // 100ms to ~50s
		},
		[]string{"model"},
	)

	m.daylightTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soilplanner_daylight_calculations_total",
			Help: "Total number of daylight calculations",
		},
		[]string{"outcome"}, // outcome: success, cache_hit, error
	)
}

// getCollectors returns all collectors in order for Describe/Collect operations
func (m *PipelineMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.pipelineRunsTotal,
		m.stageDuration,
		m.recommendedPlants,
		m.recommendAttempts,
		m.soilClassifications,
		m.geolocationLookupsTotal,
		m.geolocationDuration,
		m.modelCallsTotal,
		m.modelCallDuration,
		m.daylightTotal,
	}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordPipelineRun records the outcome of one upload
func (m *PipelineMetrics) RecordPipelineRun(outcome string) {
	m.pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records the duration of one pipeline stage
func (m *PipelineMetrics) RecordStage(stage, outcome string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// RecordRecommendation records the size and cost of a recommendation run
func (m *PipelineMetrics) RecordRecommendation(plants, attempts int) {
	m.recommendedPlants.Observe(float64(plants))
	m.recommendAttempts.Observe(float64(attempts))
}

// RecordSoilClassification records whether a usable soil label was returned
func (m *PipelineMetrics) RecordSoilClassification(outcome string) {
	m.soilClassifications.WithLabelValues(outcome).Inc()
}

// RecordLookup implements geolocation.Observer
func (m *PipelineMetrics) RecordLookup(outcome string, duration time.Duration) {
	m.geolocationLookupsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCacheHit {
		m.geolocationDuration.Observe(duration.Seconds())
	}
}

// RecordModelCall implements gemini.Observer
func (m *PipelineMetrics) RecordModelCall(model, outcome string, duration time.Duration) {
	m.modelCallsTotal.WithLabelValues(model, outcome).Inc()
	m.modelCallDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordDaylight implements suncalc.Observer
func (m *PipelineMetrics) RecordDaylight(outcome string, _ time.Duration) {
	m.daylightTotal.WithLabelValues(outcome).Inc()
}
