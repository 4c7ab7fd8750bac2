// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Default values shared with other packages.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultHistoryWindow  = 10
	DefaultTelemetryAddr  = "0.0.0.0:8090"
	DefaultMQTTTopic      = "acousticvault/predictions"
	ClassifierBackendMock = "mock"
	ClassifierBackendHTTP = "remote"
	HistoryBackendMemory  = "memory"
	HistoryBackendSQLite  = "sqlite"
)

// setDefaultConfig sets default values for the configuration.
// Durations are registered as strings so that the effective
// configuration prints the same way a user would write it.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("webserver.host", DefaultHost)
	viper.SetDefault("webserver.port", DefaultPort)
	viper.SetDefault("webserver.bodylimit", "32M")
	viper.SetDefault("webserver.readtimeout", "30s")
	viper.SetDefault("webserver.writetimeout", "30s")
	viper.SetDefault("webserver.shutdowntimeout", "10s")

	viper.SetDefault("classifier.backend", ClassifierBackendMock)
	viper.SetDefault("classifier.latency", "1.2s")
	viper.SetDefault("classifier.remote.url", "")
	viper.SetDefault("classifier.remote.timeout", "10s")

	viper.SetDefault("history.backend", HistoryBackendMemory)
	viper.SetDefault("history.window", DefaultHistoryWindow)
	viper.SetDefault("history.cachettl", "30s")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", DefaultMQTTTopic)
	viper.SetDefault("mqtt.clientid", "")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", DefaultTelemetryAddr)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
