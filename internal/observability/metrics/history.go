package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HistoryMetrics contains Prometheus metrics for the prediction history store.
type HistoryMetrics struct {
	operationMetrics

	Entries     *prometheus.GaugeVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewHistoryMetrics creates and registers history store metrics.
func NewHistoryMetrics(registry *prometheus.Registry) (*HistoryMetrics, error) {
	m := &HistoryMetrics{operationMetrics: newOperationMetrics("history", storageBuckets)}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register history metrics: %w", err)
	}
	return m, nil
}

func (m *HistoryMetrics) initMetrics() {
	m.Entries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "entries",
			Help:      "Number of entries held by the history store.",
		},
		[]string{"backend"},
	)
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "cache_hits_total",
		Help:      "Total number of history window reads served from cache.",
	})
	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "cache_misses_total",
		Help:      "Total number of history window reads that went to the store.",
	})
}

// SetSize records the current entry count of a backend.
func (m *HistoryMetrics) SetSize(backend string, size int) {
	m.Entries.WithLabelValues(backend).Set(float64(size))
}

// RecordCacheHit counts a window read answered from cache.
func (m *HistoryMetrics) RecordCacheHit() { m.CacheHits.Inc() }

// RecordCacheMiss counts a window read that fell through to the store.
func (m *HistoryMetrics) RecordCacheMiss() { m.CacheMisses.Inc() }

func (m *HistoryMetrics) getCollectors() []prometheus.Collector {
	return append(m.collectors(), m.Entries, m.CacheHits, m.CacheMisses)
}

// Describe implements the prometheus.Collector interface.
func (m *HistoryMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.getCollectors() {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *HistoryMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.getCollectors() {
		c.Collect(ch)
	}
}
