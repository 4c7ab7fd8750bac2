package history

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

func TestInstrumentedStoreRecordsOperations(t *testing.T) {
	rec := metrics.NewTestRecorder()
	s := Instrument(NewMemoryStore(), rec)
	defer s.Close()

	_, err := s.Append(t.Context(), prediction(0))
	require.NoError(t, err)
	_, err = s.Last(t.Context(), 10)
	require.NoError(t, err)
	_, err = s.Len(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpHistoryAppend, metrics.StatusSuccess))
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpHistoryRead, metrics.StatusSuccess))
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpHistoryCount, metrics.StatusSuccess))
	assert.Len(t, rec.GetDurations(metrics.OpHistoryAppend), 1)
	assert.Equal(t, "memory", s.Backend())
}

func TestInstrumentedStoreRecordsErrors(t *testing.T) {
	next := &mockStore{}
	next.On("Last", mock.Anything, 10).Return(nil, assert.AnError)

	rec := metrics.NewTestRecorder()
	s := Instrument(next, rec)

	_, err := s.Last(t.Context(), 10)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpHistoryRead, metrics.StatusError))
}

func TestOpenWithHistoryMetrics(t *testing.T) {
	m, err := metrics.NewHistoryMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	s, err := Open(&conf.HistorySettings{Backend: "memory", CacheTTL: 0}, m)
	require.NoError(t, err)
	defer s.Close()

	for i := range 4 {
		_, err := s.Append(t.Context(), prediction(i))
		require.NoError(t, err)
	}

	assert.InDelta(t, 4, testutil.ToFloat64(m.Entries.WithLabelValues("memory")), 0)
}
