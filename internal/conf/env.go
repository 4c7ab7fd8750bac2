// env.go - Environment variable configuration and validation for AcousticVault
package conf

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by AcousticVault.
const EnvPrefix = "ACOUSTICVAULT"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the short-form environment variables with validation.
// Every other key is reachable through AutomaticEnv as ACOUSTICVAULT_<SECTION>_<KEY>.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ACOUSTICVAULT_DEBUG", validateEnvBool},
		{"webserver.host", "ACOUSTICVAULT_HOST", nil},
		{"webserver.port", "ACOUSTICVAULT_PORT", validateEnvPort},

		{"classifier.backend", "ACOUSTICVAULT_CLASSIFIER", validateEnvClassifierBackend},
		{"classifier.latency", "ACOUSTICVAULT_LATENCY", validateEnvDuration},
		{"classifier.remote.url", "ACOUSTICVAULT_REMOTE_URL", validateEnvURL},

		{"history.backend", "ACOUSTICVAULT_HISTORY_BACKEND", validateEnvHistoryBackend},

		{"mqtt.enabled", "ACOUSTICVAULT_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "ACOUSTICVAULT_MQTT_BROKER", validateEnvURL},
		{"mqtt.username", "ACOUSTICVAULT_MQTT_USERNAME", nil},
		{"mqtt.password", "ACOUSTICVAULT_MQTT_PASSWORD", nil},

		{"telemetry.enabled", "ACOUSTICVAULT_TELEMETRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "ACOUSTICVAULT_SENTRY_DSN", nil},

		{"logging.level", "ACOUSTICVAULT_LOG_LEVEL", validateEnvLogLevel},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("duration must not be negative, got %s", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("URL must include scheme and host")
	}
	return nil
}

func validateEnvClassifierBackend(value string) error {
	return validateOneOf(value, validClassifierBackends)
}

func validateEnvHistoryBackend(value string) error {
	return validateOneOf(value, validHistoryBackends)
}

func validateEnvLogLevel(value string) error {
	return validateOneOf(strings.ToLower(value), validLogLevels)
}

func validateOneOf(value string, valid []string) error {
	if slices.Contains(valid, value) {
		return nil
	}
	return fmt.Errorf("must be one of: %s", strings.Join(valid, ", "))
}
