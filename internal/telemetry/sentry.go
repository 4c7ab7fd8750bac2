// Package telemetry wires Sentry error reporting into the enhanced errors package.
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// DefaultFlushTimeout bounds the wait for queued events on shutdown.
const DefaultFlushTimeout = 2 * time.Second

var sentryInitialized atomic.Bool

// droppedCategories are expected outcomes rather than faults.
var droppedCategories = map[string]bool{
	string(errors.CategoryValidation):   true,
	string(errors.CategoryCancellation): true,
}

// InitSentry initializes Sentry when enabled in settings and installs the
// errors package reporter. It is a no-op when Sentry is disabled.
func InitSentry(settings *conf.Settings, info buildinfo.BuildInfo) error {
	if !settings.Sentry.Enabled {
		getLogger().Debug("sentry disabled")
		return nil
	}
	return initSentry(sentry.ClientOptions{Dsn: settings.Sentry.DSN}, info)
}

func initSentry(opts sentry.ClientOptions, info buildinfo.BuildInfo) error {
	opts.SampleRate = 1.0
	opts.AttachStacktrace = false
	opts.Environment = "production"
	opts.ServerName = "" // never leak the hostname
	opts.Release = "acousticvault@" + info.Version()
	opts.BeforeSend = beforeSend

	if err := sentry.Init(opts); err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry-init").
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("instance_id", info.InstanceID())
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	getLogger().Info("sentry error reporting enabled",
		logger.String("release", opts.Release),
		logger.String("dsn", logger.RedactURL(opts.Dsn)))
	return nil
}

// beforeSend drops expected outcomes and strips host identifying data.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Tags != nil && droppedCategories[event.Tags["category"]] {
		return nil
	}
	return applyPrivacyFilters(event)
}

// applyPrivacyFilters removes user, host and runtime details from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Request = nil
	event.Message = logger.RedactSensitiveData(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = logger.RedactSensitiveData(event.Exception[i].Value)
	}
	return event
}

// Flush waits up to timeout for queued events and detaches the errors reporter.
func Flush(timeout time.Duration) bool {
	if !sentryInitialized.Load() {
		return true
	}
	errors.SetTelemetryReporter(nil)
	sentryInitialized.Store(false)
	return sentry.Flush(timeout)
}

// IsEnabled reports whether Sentry has been initialized.
func IsEnabled() bool {
	return sentryInitialized.Load()
}
