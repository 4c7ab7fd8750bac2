package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
)

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func backends() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T) Store {
			t.Helper()
			return NewMemoryStore()
		}},
		{"sqlite", func(t *testing.T) Store {
			t.Helper()
			s, err := NewSQLiteStore()
			require.NoError(t, err)
			return s
		}},
		{"cached-memory", func(t *testing.T) Store {
			t.Helper()
			return NewCachedStore(NewMemoryStore(), time.Minute, nil)
		}},
		{"cached-sqlite", func(t *testing.T) Store {
			t.Helper()
			s, err := NewSQLiteStore()
			require.NoError(t, err)
			return NewCachedStore(Instrument(s, nil), time.Minute, nil)
		}},
	}
}

func prediction(i int) classifier.Prediction {
	categories := classifier.Categories()
	c := categories[i%len(categories)]
	return classifier.Prediction{
		Label:      c.Label,
		Confidence: 0.85 + float64(i%10)/100,
		RiskLevel:  c.Risk,
		Timestamp:  fmt.Sprintf("2026-01-01T00:00:%02d.000000Z", i%60),
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { assert.NoError(t, s.Close()) })
			fn(t, s)
		})
	}
}

func TestEmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		entries, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)

		n, err := s.Len(t.Context())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		for i := range 3 {
			p := prediction(i)
			e, err := s.Append(t.Context(), p)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), e.ID)
			assert.Equal(t, p.Label, e.Label)
			assert.InDelta(t, p.Confidence, e.Confidence, 1e-12)
			assert.Equal(t, p.Timestamp, e.Timestamp)
		}

		entries, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i, e := range entries {
			assert.Equal(t, int64(i+1), e.ID)
		}
	})
}

func TestLastWindow(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		for i := range 25 {
			_, err := s.Append(t.Context(), prediction(i))
			require.NoError(t, err)
		}

		entries, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		require.Len(t, entries, 10)
		for i, e := range entries {
			assert.Equal(t, int64(16+i), e.ID, "window must be the most recent entries, oldest first")
		}

		all, err := s.Last(t.Context(), 100)
		require.NoError(t, err)
		assert.Len(t, all, 25)

		none, err := s.Last(t.Context(), 0)
		require.NoError(t, err)
		assert.Empty(t, none)

		n, err := s.Len(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 25, n)
	})
}

func TestLastReturnsCopy(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := s.Append(t.Context(), prediction(0))
		require.NoError(t, err)

		entries, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		entries[0].Label = "tampered"

		again, err := s.Last(t.Context(), 10)
		require.NoError(t, err)
		assert.NotEqual(t, "tampered", again[0].Label)
	})
}

func TestConcurrentAppendsProduceUniqueIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		const n = 50

		ids := make([]int64, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				e, err := s.Append(context.Background(), prediction(i))
				if assert.NoError(t, err) {
					ids[i] = e.ID
				}
			})
		}
		wg.Wait()

		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		for i, id := range ids {
			assert.Equal(t, int64(i+1), id)
		}

		entries, err := s.Last(t.Context(), n)
		require.NoError(t, err)
		require.Len(t, entries, n)
		for i := 1; i < len(entries); i++ {
			assert.Greater(t, entries[i].ID, entries[i-1].ID)
		}
	})
}

func TestSQLiteStoresArePrivate(t *testing.T) {
	a, err := NewSQLiteStore()
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteStore()
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Append(t.Context(), prediction(0))
	require.NoError(t, err)

	n, err := b.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteCancelledContext(t *testing.T) {
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = s.Append(ctx, prediction(0))
	require.Error(t, err)

	n, err := s.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteClosedStoreReportsDatabaseError(t *testing.T) {
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Append(t.Context(), prediction(0))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		settings conf.HistorySettings
		backend  string
		cached   bool
		wantErr  bool
	}{
		{"memory", conf.HistorySettings{Backend: "memory"}, "memory", false, false},
		{"default backend", conf.HistorySettings{}, "memory", false, false},
		{"sqlite cached", conf.HistorySettings{Backend: "sqlite", CacheTTL: time.Second}, "sqlite", true, false},
		{"unknown", conf.HistorySettings{Backend: "redis"}, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(&tt.settings, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				return
			}
			require.NoError(t, err)
			defer s.Close()

			assert.Equal(t, tt.backend, s.Backend())
			_, isCached := s.(*CachedStore)
			assert.Equal(t, tt.cached, isCached)
		})
	}
}
