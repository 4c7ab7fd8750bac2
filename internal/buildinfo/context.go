// Package buildinfo contains build-time metadata kept apart from user configuration
package buildinfo

import (
	"time"

	"github.com/google/uuid"
)

// UnknownValue is reported for metadata that was not injected at build time
const UnknownValue = "unknown"

// BuildInfo provides read access to build-time metadata.
type BuildInfo interface {
	Version() string
	BuildDate() string
	InstanceID() string
	StartedAt() time.Time
}

// Context contains build-time metadata plus the identity of this process.
// It is created once at startup and never changes.
type Context struct {
	version    string
	buildDate  string
	instanceID string
	startedAt  time.Time
}

// NewContext creates a build context for a freshly started process.
// A random instance id tags error reports and MQTT client ids.
func NewContext(version, buildDate string) *Context {
	return &Context{
		version:    version,
		buildDate:  buildDate,
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
	}
}

// Version returns the build version string
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build date string
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// InstanceID returns the random identifier of this process
func (c *Context) InstanceID() string {
	if c == nil || c.instanceID == "" {
		return UnknownValue
	}
	return c.instanceID
}

// StartedAt returns the process start time
func (c *Context) StartedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.startedAt
}

// Uptime returns the time elapsed since the process started
func (c *Context) Uptime() time.Duration {
	if c == nil || c.startedAt.IsZero() {
		return 0
	}
	return time.Since(c.startedAt)
}

var _ BuildInfo = (*Context)(nil)
