package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
)

func TestNewFromSettings(t *testing.T) {
	c, err := New(&conf.ClassifierSettings{Backend: "mock", Latency: 5 * time.Millisecond})
	require.NoError(t, err)
	mock, ok := c.(*Mock)
	require.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, mock.Latency())

	c, err = New(&conf.ClassifierSettings{
		Backend: "remote",
		Remote:  conf.RemoteClassifierSettings{URL: "http://inference.local", Timeout: time.Second},
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", c.Name())

	_, err = New(&conf.ClassifierSettings{Backend: "tflite"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
