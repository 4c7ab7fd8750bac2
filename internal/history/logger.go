package history

import (
	"sync"

	"github.com/tphakala/acousticvault/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the logger scoped to the history module.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("history")
	})
	return serviceLogger
}
