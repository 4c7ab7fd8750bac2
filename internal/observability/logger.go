package observability

import "github.com/tphakala/acousticvault/internal/logger"

// getLogger resolves the module logger at call time so it follows the
// global logger installed at startup.
func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
