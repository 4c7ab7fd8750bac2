package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/classifier"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, p classifier.Prediction) (Entry, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Entry), args.Error(1)
}

func (m *mockStore) Last(ctx context.Context, n int) ([]Entry, error) {
	args := m.Called(ctx, n)
	entries, _ := args.Get(0).([]Entry)
	return entries, args.Error(1)
}

func (m *mockStore) Len(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Backend() string { return "mock" }

func (m *mockStore) Close() error { return nil }

type countingCacheMetrics struct {
	hits, misses int
}

func (c *countingCacheMetrics) RecordCacheHit()  { c.hits++ }
func (c *countingCacheMetrics) RecordCacheMiss() { c.misses++ }

func TestCachedStoreServesRepeatedWindowsFromCache(t *testing.T) {
	next := &mockStore{}
	window := []Entry{{ID: 1, Label: "Silence"}, {ID: 2, Label: "Bird Song"}}
	next.On("Len", mock.Anything).Return(2, nil)
	next.On("Last", mock.Anything, 10).Return(window, nil).Once()

	cm := &countingCacheMetrics{}
	s := NewCachedStore(next, time.Minute, cm)
	defer s.Close()

	for range 3 {
		entries, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		assert.Equal(t, window, entries)
	}

	assert.Equal(t, 1, cm.misses)
	assert.Equal(t, 2, cm.hits)
	next.AssertExpectations(t)
}

func TestCachedStoreSeesAppends(t *testing.T) {
	s := NewCachedStore(NewMemoryStore(), time.Minute, nil)
	defer s.Close()

	_, err := s.Append(t.Context(), prediction(0))
	require.NoError(t, err)
	first, err := s.Last(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = s.Append(t.Context(), prediction(1))
	require.NoError(t, err)
	second, err := s.Last(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestCachedStoreSkipsInconsistentWindow(t *testing.T) {
	next := &mockStore{}
	// an append landed between Len and Last
	next.On("Len", mock.Anything).Return(1, nil)
	next.On("Last", mock.Anything, 10).Return([]Entry{{ID: 1}, {ID: 2}}, nil).Twice()

	s := NewCachedStore(next, time.Minute, nil)
	defer s.Close()

	for range 2 {
		_, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
	}
	next.AssertExpectations(t)
}

func TestCachedStorePropagatesErrors(t *testing.T) {
	next := &mockStore{}
	next.On("Len", mock.Anything).Return(0, assert.AnError)

	s := NewCachedStore(next, time.Minute, nil)
	defer s.Close()

	_, err := s.Last(t.Context(), 10)
	assert.ErrorIs(t, err, assert.AnError)
}
