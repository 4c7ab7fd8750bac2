// Package conf provides configuration management for AcousticVault.
package conf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Host            string        `yaml:"host"`            // interface to bind, empty or 0.0.0.0 for all
	Port            int           `yaml:"port"`            // listen port
	BodyLimit       string        `yaml:"bodylimit"`       // maximum request body size, e.g. "32M"
	ReadTimeout     time.Duration `yaml:"readtimeout"`     // http.Server read timeout
	WriteTimeout    time.Duration `yaml:"writetimeout"`    // http.Server write timeout
	ShutdownTimeout time.Duration `yaml:"shutdowntimeout"` // grace period for in-flight requests
}

// RemoteClassifierSettings configures the external inference backend.
type RemoteClassifierSettings struct {
	URL     string        `yaml:"url"`     // base URL, "/predict" is appended
	Timeout time.Duration `yaml:"timeout"` // per request timeout
}

// ClassifierSettings selects and tunes the classifier backend.
type ClassifierSettings struct {
	Backend string                   `yaml:"backend"` // "mock" or "remote"
	Latency time.Duration            `yaml:"latency"` // simulated inference delay of the mock backend
	Remote  RemoteClassifierSettings `yaml:"remote"`
}

// HistorySettings configures the prediction history store.
type HistorySettings struct {
	Backend  string        `yaml:"backend"`  // "memory" or "sqlite"
	Window   int           `yaml:"window"`   // number of entries returned by GET /history
	CacheTTL time.Duration `yaml:"cachettl"` // history window cache lifetime, 0 disables caching
}

// MQTTSettings contains settings for prediction publishing.
type MQTTSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`   // e.g. tcp://localhost:1883
	Topic    string `yaml:"topic"`    // topic predictions are published to
	ClientID string `yaml:"clientid"` // MQTT client id, generated when empty
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TelemetrySettings controls the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port of the metrics endpoint
}

// SentrySettings controls error reporting.
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// LoggingSettings controls log level and optional JSON log file.
type LoggingSettings struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error
	File  string `yaml:"file"`  // JSON log file path, empty disables file output
}

// Settings contains all configuration options for AcousticVault.
type Settings struct {
	Debug      bool               `yaml:"debug"`
	WebServer  WebServerSettings  `yaml:"webserver"`
	Classifier ClassifierSettings `yaml:"classifier"`
	History    HistorySettings    `yaml:"history"`
	MQTT       MQTTSettings       `yaml:"mqtt"`
	Telemetry  TelemetrySettings  `yaml:"telemetry"`
	Sentry     SentrySettings     `yaml:"sentry"`
	Logging    LoggingSettings    `yaml:"logging"`
}

// Address returns the host:port the API server binds to.
func (s *WebServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the configuration file and environment variables into a Settings
// value. configFile overrides the search paths when non-empty.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper registers defaults and environment bindings and reads the configuration file.
// A missing file is not an error; defaults and environment apply.
func initViper(configFile string) error {
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return errors.New(fmt.Errorf("config file %s: %w", configFile, err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Context("operation", "stat-config").
				Build()
		}
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Info("no config file found, using defaults and environment")
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	GetLogger().Info("loaded config file", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// GetSettings returns the most recently loaded settings, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
