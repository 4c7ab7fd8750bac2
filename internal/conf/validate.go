// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var (
	validClassifierBackends = []string{ClassifierBackendMock, ClassifierBackendHTTP}
	validHistoryBackends    = []string{HistoryBackendMemory, HistoryBackendSQLite}
	validLogLevels          = []string{"trace", "debug", "info", "warn", "error"}

	// bodyLimitPattern matches echo's BodyLimit size syntax, e.g. "32M" or "512K"
	bodyLimitPattern = regexp.MustCompile(`^\d+[KMGTP]?$`)
)

const maxHistoryWindow = 1000

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateClassifierSettings(&s.Classifier) },
		func(s *Settings) error { return validateHistorySettings(&s.History) },
		func(s *Settings) error { return validateMQTTSettings(&s.MQTT) },
		func(s *Settings) error { return validateTelemetrySettings(&s.Telemetry) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
		func(s *Settings) error { return validateLoggingSettings(&s.Logging) },
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateWebServerSettings validates the API server settings
func validateWebServerSettings(settings *WebServerSettings) error {
	var errs []string

	if settings.Port < 1 || settings.Port > 65535 {
		errs = append(errs, fmt.Sprintf("webserver port must be between 1 and 65535, got %d", settings.Port))
	}

	if settings.Host != "" && net.ParseIP(settings.Host) == nil && !isHostname(settings.Host) {
		errs = append(errs, fmt.Sprintf("webserver host %q is not an IP address or hostname", settings.Host))
	}

	if settings.BodyLimit != "" && !bodyLimitPattern.MatchString(strings.ToUpper(settings.BodyLimit)) {
		errs = append(errs, fmt.Sprintf("webserver body limit %q must look like 32M", settings.BodyLimit))
	}

	if settings.ReadTimeout < 0 || settings.WriteTimeout < 0 || settings.ShutdownTimeout < 0 {
		errs = append(errs, "webserver timeouts must not be negative")
	}

	return joinErrs("webserver", errs)
}

// validateClassifierSettings validates backend selection and remote endpoint
func validateClassifierSettings(settings *ClassifierSettings) error {
	var errs []string

	if !slices.Contains(validClassifierBackends, settings.Backend) {
		errs = append(errs, fmt.Sprintf("classifier backend must be one of %s, got %q",
			strings.Join(validClassifierBackends, ", "), settings.Backend))
	}

	if settings.Latency < 0 {
		errs = append(errs, "classifier latency must not be negative")
	}

	if settings.Backend == ClassifierBackendHTTP {
		u, err := url.Parse(settings.Remote.URL)
		switch {
		case settings.Remote.URL == "":
			errs = append(errs, "classifier remote url is required for the remote backend")
		case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
			errs = append(errs, fmt.Sprintf("classifier remote url %q must be an http(s) URL", settings.Remote.URL))
		}
		if settings.Remote.Timeout <= 0 {
			errs = append(errs, "classifier remote timeout must be positive")
		}
	}

	return joinErrs("classifier", errs)
}

// validateHistorySettings validates the history store settings
func validateHistorySettings(settings *HistorySettings) error {
	var errs []string

	if !slices.Contains(validHistoryBackends, settings.Backend) {
		errs = append(errs, fmt.Sprintf("history backend must be one of %s, got %q",
			strings.Join(validHistoryBackends, ", "), settings.Backend))
	}

	if settings.Window < 1 || settings.Window > maxHistoryWindow {
		errs = append(errs, fmt.Sprintf("history window must be between 1 and %d, got %d", maxHistoryWindow, settings.Window))
	}

	if settings.CacheTTL < 0 {
		errs = append(errs, "history cache ttl must not be negative")
	}

	return joinErrs("history", errs)
}

// validateMQTTSettings validates MQTT settings when publishing is enabled
func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string

	if settings.Broker == "" {
		errs = append(errs, "mqtt broker is required when mqtt is enabled")
	} else if u, err := url.Parse(settings.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "mqtt broker must be a URL such as tcp://host:1883")
	}

	if settings.Topic == "" {
		errs = append(errs, "mqtt topic is required when mqtt is enabled")
	} else if strings.ContainsAny(settings.Topic, "+#") {
		errs = append(errs, "mqtt topic must not contain wildcards")
	}

	return joinErrs("mqtt", errs)
}

// validateTelemetrySettings validates the metrics listener address
func validateTelemetrySettings(settings *TelemetrySettings) error {
	if !settings.Enabled {
		return nil
	}

	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("telemetry settings errors: listen address %q is invalid: %v", settings.Listen, err)
	}

	return nil
}

// validateSentrySettings requires a DSN when error reporting is on
func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("sentry settings errors: dsn is required when sentry is enabled")
	}
	return nil
}

// validateLoggingSettings validates log level names
func validateLoggingSettings(settings *LoggingSettings) error {
	if settings.Level == "" {
		return nil
	}
	if !slices.Contains(validLogLevels, strings.ToLower(settings.Level)) {
		return fmt.Errorf("logging settings errors: level must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), settings.Level)
	}
	return nil
}

func joinErrs(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s settings errors: %v", section, errs)
}

// hostnamePattern is a loose RFC 1123 hostname check
var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-\.]*[a-zA-Z0-9])?$`)

func isHostname(host string) bool {
	return len(host) <= 253 && hostnamePattern.MatchString(host)
}
