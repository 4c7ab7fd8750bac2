package history

import (
	"context"
	"time"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// sizeRecorder is implemented by metrics.HistoryMetrics.
type sizeRecorder interface {
	SetSize(backend string, size int)
}

// InstrumentedStore records operation counts, durations and errors for a Store.
type InstrumentedStore struct {
	next     Store
	recorder metrics.Recorder
}

// Instrument wraps next. A nil recorder records nothing.
func Instrument(next Store, recorder metrics.Recorder) *InstrumentedStore {
	if recorder == nil {
		recorder = metrics.NoOpRecorder{}
	}
	return &InstrumentedStore{next: next, recorder: recorder}
}

// Append implements Store.
func (s *InstrumentedStore) Append(ctx context.Context, p classifier.Prediction) (Entry, error) {
	start := time.Now()
	e, err := s.next.Append(ctx, p)
	s.observe(metrics.OpHistoryAppend, start, err)
	if err == nil {
		if sr, ok := s.recorder.(sizeRecorder); ok {
			sr.SetSize(s.next.Backend(), int(e.ID))
		}
	}
	return e, err
}

// Last implements Store.
func (s *InstrumentedStore) Last(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	entries, err := s.next.Last(ctx, n)
	s.observe(metrics.OpHistoryRead, start, err)
	return entries, err
}

// Len implements Store.
func (s *InstrumentedStore) Len(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.next.Len(ctx)
	s.observe(metrics.OpHistoryCount, start, err)
	return n, err
}

// Backend implements Store.
func (s *InstrumentedStore) Backend() string { return s.next.Backend() }

// Close implements Store.
func (s *InstrumentedStore) Close() error { return s.next.Close() }

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() Store { return s.next }

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.recorder.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		s.recorder.RecordOperation(op, metrics.StatusError)
		s.recorder.RecordError(op, string(errors.CategoryOf(err)))
		return
	}
	s.recorder.RecordOperation(op, metrics.StatusSuccess)
}

var _ Store = (*InstrumentedStore)(nil)
