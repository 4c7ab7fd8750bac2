package telemetry

import "github.com/tphakala/acousticvault/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
