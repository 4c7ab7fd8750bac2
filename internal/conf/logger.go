package conf

import "github.com/tphakala/acousticvault/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is resolved on each call since the central logger is configured after Load.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
