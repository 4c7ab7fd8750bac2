package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", LogLevelDebug, true, true, true},
		{"info", LogLevelInfo, false, true, true},
		{"warn", LogLevelWarn, false, false, true},
		{"error", LogLevelError, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewSlogLogger(buf, tt.level, time.UTC)

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")
			log.Error("error message")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug message"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "info message"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "warn message"))
			assert.Contains(t, out, "error message")
		})
	}
}

func TestTextOutputOmitsTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	NewSlogLogger(buf, LogLevelInfo, time.UTC).Info("hello")

	assert.NotContains(t, buf.String(), "time=")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestTraceLevelLabel(t *testing.T) {
	buf := &bytes.Buffer{}
	NewSlogLogger(buf, LogLevelTrace, time.UTC).Trace("very verbose")

	assert.Contains(t, buf.String(), "TRACE")
	assert.Contains(t, buf.String(), "very verbose")
}

func TestModuleNaming(t *testing.T) {
	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{DefaultLevel: "debug"}, buf)
	require.NoError(t, err)

	cl.Module("history").Module("sqlite").Info("migrated")

	assert.Contains(t, buf.String(), "module=history.sqlite")
}

func TestModuleLevelOverride(t *testing.T) {
	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
		ModuleLevels: map[string]string{"classifier": "debug"},
	}, buf)
	require.NoError(t, err)

	cl.Module("classifier").Debug("classifier detail")
	cl.Module("api").Debug("api detail")

	assert.Contains(t, buf.String(), "classifier detail")
	assert.NotContains(t, buf.String(), "api detail")
}

func TestWithFieldsAreImmutable(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewSlogLogger(buf, LogLevelInfo, time.UTC)
	child := base.With(String("request", "a"))
	_ = child.With(String("extra", "b"))

	child.Info("child")
	assert.Contains(t, buf.String(), "request=a")
	assert.NotContains(t, buf.String(), "extra=b")
}

func TestWithContextAddsTraceID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	ctx := WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("traced")
	log.WithContext(context.Background()).Info("untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace_id=req-42")
	assert.NotContains(t, lines[1], "trace_id")
}

func TestFieldFormatting(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Info("fields",
		Float64("confidence", 0.912345),
		Duration("elapsed", 1234567*time.Microsecond),
		Error(os.ErrNotExist),
		Bool("ok", true))

	out := buf.String()
	assert.Contains(t, out, "confidence=0.912")
	assert.Contains(t, out, "elapsed=1.235s")
	assert.Contains(t, out, "error=\"file does not exist\"")
	assert.Contains(t, out, "ok=true")
}

func TestFileOutputWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "acousticvault.log")

	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cl.Module("api").Info("prediction stored", String("label", "Bird Song"))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "prediction stored", record["msg"])
	assert.Equal(t, "api", record["module"])
	assert.Equal(t, "Bird Song", record["label"])
	assert.Contains(t, record, "time")
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cl, err := newCentralLogger(&LoggingConfig{FileOutput: &FileOutput{Enabled: true, Path: path}}, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close())
}

func TestInvalidTimezone(t *testing.T) {
	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	_, err := NewCentralLogger(nil)
	require.Error(t, err)
}

func TestGlobalFallback(t *testing.T) {
	SetGlobal(nil)
	t.Cleanup(func() { SetGlobal(nil) })

	assert.NotNil(t, Global().Module("api"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, traceLevelValue, parseLogLevel("trace"))
	assert.Equal(t, parseLogLevel("warn"), parseLogLevel("WARNING"))
	assert.Equal(t, parseLogLevel("info"), parseLogLevel("bogus"))
}
