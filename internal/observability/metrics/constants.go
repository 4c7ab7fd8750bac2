package metrics

import "time"

// Operation names used as metric label values.
const (
	OpClassify      = "classify"
	OpHistoryAppend = "history_append"
	OpHistoryRead   = "history_read"
	OpHistoryCount  = "history_count"
	OpMQTTPublish   = "mqtt_publish"
	OpMQTTConnect   = "mqtt_connect"
)

// Status values for RecordOperation.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// ShutdownTimeout bounds the metrics endpoint shutdown.
const ShutdownTimeout = 5 * time.Second

// Histogram buckets in seconds.
var (
	classifyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 1.25, 1.5, 2, 3, 5, 10}
	storageBuckets  = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1}
	httpBuckets     = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 1.5, 2, 5, 10}
)
