package buildinfo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextValues(t *testing.T) {
	tests := []struct {
		name          string
		ctx           *Context
		wantVersion   string
		wantBuildDate string
	}{
		{"nil context", nil, UnknownValue, UnknownValue},
		{"empty values", NewContext("", ""), UnknownValue, UnknownValue},
		{"release", NewContext("1.0.0", "2026-01-01T00:00:00Z"), "1.0.0", "2026-01-01T00:00:00Z"},
		{"pre-release", NewContext("1.0.0-beta.1", "2026-01-01"), "1.0.0-beta.1", "2026-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantVersion, tt.ctx.Version())
			assert.Equal(t, tt.wantBuildDate, tt.ctx.BuildDate())
		})
	}
}

func TestInstanceIDIsUniqueUUID(t *testing.T) {
	a := NewContext("1.0.0", "")
	b := NewContext("1.0.0", "")

	_, err := uuid.Parse(a.InstanceID())
	require.NoError(t, err)
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}

func TestUptime(t *testing.T) {
	var nilCtx *Context
	assert.Zero(t, nilCtx.Uptime())
	assert.True(t, nilCtx.StartedAt().IsZero())
	assert.Equal(t, UnknownValue, nilCtx.InstanceID())

	ctx := NewContext("1.0.0", "")
	ctx.startedAt = time.Now().Add(-time.Minute)
	assert.GreaterOrEqual(t, ctx.Uptime(), time.Minute)
}
