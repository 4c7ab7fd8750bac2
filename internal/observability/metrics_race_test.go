package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// because every instance owns its registry.
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 50

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.registry)
			assert.NotNil(t, m.Classifier)
			assert.NotNil(t, m.History)
			assert.NotNil(t, m.HTTP)
			assert.NotNil(t, m.MQTT)
		})
	}
	wg.Wait()
}
