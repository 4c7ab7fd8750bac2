package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/history"
	"github.com/tphakala/acousticvault/internal/logger"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// Publisher publishes predictions asynchronously. Publishing never blocks or
// fails the request that produced the prediction; failures are logged and counted.
type Publisher struct {
	client  Client
	topic   string
	timeout time.Duration
	metrics *metrics.MQTTMetrics

	mu      sync.Mutex // guards closed and wg.Go against Drain
	closed  bool
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewPublisher creates a publisher sending to cfg.Topic through client.
// m may be nil.
func NewPublisher(client Client, cfg Config, m *metrics.MQTTMetrics) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		client:  client,
		topic:   cfg.Topic,
		timeout: cfg.PublishTimeout,
		metrics: m,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Topic returns the topic predictions are published to.
func (p *Publisher) Topic() string { return p.topic }

// PublishPrediction queues e and pred for publishing and returns immediately.
func (p *Publisher) PublishPrediction(e history.Entry, pred classifier.Prediction) {
	payload, err := json.Marshal(NewPredictionMessage(e, pred))
	if err != nil {
		p.drop(errors.New(err).Component("mqtt").Category(errors.CategoryMQTTPublish).Build(), e.ID)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.drop(errors.Newf("publisher closed").Component("mqtt").Category(errors.CategoryMQTTPublish).Build(), e.ID)
		return
	}

	p.wg.Go(func() {
		ctx := p.baseCtx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		start := time.Now()
		err := p.client.Publish(ctx, p.topic, payload)
		if p.metrics != nil {
			p.metrics.RecordDuration(metrics.OpMQTTPublish, time.Since(start).Seconds())
		}
		if err != nil {
			p.drop(err, e.ID)
			return
		}
		if p.metrics != nil {
			p.metrics.RecordOperation(metrics.OpMQTTPublish, metrics.StatusSuccess)
		}
		getLogger().Debug("prediction published", logger.Int64("id", e.ID), logger.String("topic", p.topic))
	})
}

func (p *Publisher) drop(err error, id int64) {
	getLogger().Warn("prediction not published",
		logger.Int64("id", id),
		logger.String("topic", p.topic),
		logger.Error(err))
	if p.metrics != nil {
		p.metrics.RecordOperation(metrics.OpMQTTPublish, metrics.StatusError)
		p.metrics.RecordError(metrics.OpMQTTPublish, string(errors.CategoryOf(err)))
		p.metrics.IncrementMessagesDropped()
	}
}

// Drain stops accepting predictions and waits for in-flight publishes.
// When ctx expires first, outstanding publishes are cancelled and ctx.Err is returned.
func (p *Publisher) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Close drains outstanding publishes and disconnects the client.
func (p *Publisher) Close(ctx context.Context) error {
	err := p.Drain(ctx)
	p.cancel()
	p.client.Disconnect()
	return err
}
