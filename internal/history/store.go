// Package history keeps the append-only log of predictions served by the API.
//
// Ids are assigned as the store length plus one, atomically with the append,
// so they are unique and strictly increasing in append order even when
// predictions complete concurrently.
package history

import (
	"context"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// Entry is the summary of one served prediction.
type Entry struct {
	ID         int64   `json:"id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// Store is an append-only prediction history.
type Store interface {
	// Append adds p to the end and returns the entry with its assigned id.
	Append(ctx context.Context, p classifier.Prediction) (Entry, error)
	// Last returns a copy of the final n entries, oldest first. Never nil.
	Last(ctx context.Context, n int) ([]Entry, error)
	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)
	// Backend names the storage backend.
	Backend() string
	Close() error
}

func entryFromPrediction(id int64, p classifier.Prediction) Entry {
	return Entry{
		ID:         id,
		Label:      p.Label,
		Confidence: p.Confidence,
		Timestamp:  p.Timestamp,
	}
}

// Open builds the store described by settings: the selected backend, wrapped
// in the window cache when cachettl is positive, with metrics recorded to m.
// m may be nil.
func Open(settings *conf.HistorySettings, m *metrics.HistoryMetrics) (Store, error) {
	var store Store
	switch settings.Backend {
	case "", conf.HistoryBackendMemory:
		store = NewMemoryStore()
	case conf.HistoryBackendSQLite:
		s, err := NewSQLiteStore()
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, errors.Newf("unknown history backend %q", settings.Backend).
			Component("history").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var recorder metrics.Recorder
	if m != nil {
		recorder = m
	}
	store = Instrument(store, recorder)

	if settings.CacheTTL > 0 {
		var cm cacheMetrics
		if m != nil {
			cm = m
		}
		store = NewCachedStore(store, settings.CacheTTL, cm)
	}

	GetLogger().Info("history store ready",
		logger.String("backend", store.Backend()),
		logger.Duration("cache_ttl", settings.CacheTTL))
	return store, nil
}
