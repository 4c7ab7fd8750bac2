package classifier

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

const (
	// DefaultLatency is the simulated inference delay of the mock backend.
	DefaultLatency = 1200 * time.Millisecond

	minConfidence = 0.85
	maxConfidence = 0.99
)

// Mock samples the static category table after a simulated delay.
// It is safe for concurrent use; overlapping calls wait in parallel.
type Mock struct {
	latency time.Duration
	now     func() time.Time

	mu  sync.Mutex // guards rng, which is not goroutine safe
	rng *rand.Rand
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithLatency sets the simulated delay. Zero or negative disables it.
func WithLatency(d time.Duration) MockOption {
	return func(m *Mock) { m.latency = d }
}

// WithRand makes sampling deterministic.
func WithRand(rng *rand.Rand) MockOption {
	return func(m *Mock) { m.rng = rng }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MockOption {
	return func(m *Mock) { m.now = now }
}

// NewMock creates a mock classifier with DefaultLatency unless overridden.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		latency: DefaultLatency,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Classifier.
func (m *Mock) Name() string { return "mock" }

// Latency returns the configured simulated delay.
func (m *Mock) Latency() time.Duration { return m.latency }

// Classify implements Classifier. The clip content is never read.
func (m *Mock) Classify(ctx context.Context, in Input) (Prediction, error) {
	if err := m.wait(ctx); err != nil {
		return Prediction{}, errors.New(err).
			Component("classifier").
			Category(contextErrorCategory(err)).
			Context("backend", m.Name()).
			FileContext(in.Filename, in.Size).
			Build()
	}

	category, confidence := m.draw()
	details := category.Details

	GetLogger().Debug("mock prediction",
		logger.String("label", category.Label),
		logger.Float64("confidence", confidence),
		logger.Int64("size", in.Size))

	return Prediction{
		Label:      category.Label,
		Confidence: confidence,
		RiskLevel:  category.Risk,
		Timestamp:  formatTimestamp(m.now()),
		Details:    &details,
	}, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(m.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Mock) draw() (SoundCategory, float64) {
	var idx int
	var u float64
	if m.rng != nil {
		m.mu.Lock()
		idx = m.rng.IntN(len(soundCategories))
		u = m.rng.Float64()
		m.mu.Unlock()
	} else {
		idx = rand.IntN(len(soundCategories)) //nolint:gosec // not security sensitive
		u = rand.Float64()                    //nolint:gosec // not security sensitive
	}
	return soundCategories[idx], roundConfidence(minConfidence + u*(maxConfidence-minConfidence))
}

// roundConfidence rounds to 4 decimal places.
func roundConfidence(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func contextErrorCategory(err error) errors.ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.CategoryTimeout
	}
	return errors.CategoryCancellation
}

var _ Classifier = (*Mock)(nil)
