package history

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/acousticvault/internal/classifier"
)

// cacheMetrics is implemented by metrics.HistoryMetrics.
type cacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// CachedStore memoizes Last windows. Keys include the store length, so an
// append never needs to invalidate anything: the next read sees a new key.
type CachedStore struct {
	next    Store
	cache   *cache.Cache
	metrics cacheMetrics
}

// NewCachedStore wraps next with a window cache whose entries live for ttl.
// m may be nil.
func NewCachedStore(next Store, ttl time.Duration, m cacheMetrics) *CachedStore {
	return &CachedStore{
		next:    next,
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
	}
}

// Append implements Store.
func (s *CachedStore) Append(ctx context.Context, p classifier.Prediction) (Entry, error) {
	return s.next.Append(ctx, p)
}

// Last implements Store.
func (s *CachedStore) Last(ctx context.Context, n int) ([]Entry, error) {
	length, err := s.next.Len(ctx)
	if err != nil {
		return nil, err
	}

	key := windowKey(length, n)
	if cached, found := s.cache.Get(key); found {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return cloneEntries(cached.([]Entry)), nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	entries, err := s.next.Last(ctx, n)
	if err != nil {
		return nil, err
	}

	// an append between Len and Last makes the window newer than its key
	if windowEndsAt(entries, length) {
		s.cache.SetDefault(key, cloneEntries(entries))
	}
	return entries, nil
}

// Len implements Store.
func (s *CachedStore) Len(ctx context.Context) (int, error) {
	return s.next.Len(ctx)
}

// Backend implements Store.
func (s *CachedStore) Backend() string { return s.next.Backend() }

// Close implements Store.
func (s *CachedStore) Close() error {
	s.cache.Flush()
	return s.next.Close()
}

// Unwrap returns the wrapped store.
func (s *CachedStore) Unwrap() Store { return s.next }

func windowKey(length, n int) string {
	return strconv.Itoa(length) + ":" + strconv.Itoa(n)
}

func windowEndsAt(entries []Entry, length int) bool {
	if len(entries) == 0 {
		return length == 0
	}
	return entries[len(entries)-1].ID == int64(length)
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

var _ Store = (*CachedStore)(nil)
