// Package metrics provides custom Prometheus metrics for AcousticVault components.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on this abstraction rather than concrete collectors,
// so tests can pass a fake and disabled telemetry can pass NoOpRecorder.
type Recorder interface {
	// RecordOperation records an operation (e.g. "classify") with its status ("success", "error").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	RecordError(operation, errorType string)
}

// NoOpRecorder discards everything.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordOperation(string, string) {}
func (NoOpRecorder) RecordDuration(string, float64) {}
func (NoOpRecorder) RecordError(string, string)     {}

var _ Recorder = NoOpRecorder{}

var (
	_ Recorder = (*ClassifierMetrics)(nil)
	_ Recorder = (*HistoryMetrics)(nil)
	_ Recorder = (*MQTTMetrics)(nil)
)
