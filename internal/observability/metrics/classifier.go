package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics contains Prometheus metrics for sound classification.
type ClassifierMetrics struct {
	operationMetrics

	PredictionsTotal  *prometheus.CounterVec
	ActivePredictions prometheus.Gauge
	LastConfidence    prometheus.Gauge
}

// NewClassifierMetrics creates and registers classifier metrics.
func NewClassifierMetrics(registry *prometheus.Registry) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{operationMetrics: newOperationMetrics("classifier", classifyBuckets)}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

func (m *ClassifierMetrics) initMetrics() {
	m.PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "predictions_total",
			Help:      "Total number of predictions partitioned by label and risk level.",
		},
		[]string{"label", "risk_level"},
	)
	m.ActivePredictions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "active_predictions",
		Help:      "Number of classifications currently in progress.",
	})
	m.LastConfidence = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "last_confidence",
		Help:      "Confidence of the most recent prediction.",
	})
}

// RecordPrediction counts a successful prediction.
func (m *ClassifierMetrics) RecordPrediction(label, riskLevel string, confidence float64) {
	m.PredictionsTotal.WithLabelValues(label, riskLevel).Inc()
	m.LastConfidence.Set(confidence)
}

// PredictionStarted and PredictionFinished track in-flight classifications.
func (m *ClassifierMetrics) PredictionStarted()  { m.ActivePredictions.Inc() }
func (m *ClassifierMetrics) PredictionFinished() { m.ActivePredictions.Dec() }

func (m *ClassifierMetrics) getCollectors() []prometheus.Collector {
	return append(m.collectors(), m.PredictionsTotal, m.ActivePredictions, m.LastConfidence)
}

// Describe implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.getCollectors() {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.getCollectors() {
		c.Collect(ch)
	}
}
