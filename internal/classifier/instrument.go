package classifier

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// predictionRecorder is implemented by metrics.ClassifierMetrics.
type predictionRecorder interface {
	RecordPrediction(label, riskLevel string, confidence float64)
	PredictionStarted()
	PredictionFinished()
}

// Instrumented wraps a Classifier with metrics and optional Sentry spans.
type Instrumented struct {
	next     Classifier
	recorder metrics.Recorder
	tracing  bool
}

// Instrument wraps next. A nil recorder records nothing. When recorder also
// tracks predictions (metrics.ClassifierMetrics) labels and in-flight counts
// are recorded too.
func Instrument(next Classifier, recorder metrics.Recorder, tracing bool) *Instrumented {
	if recorder == nil {
		recorder = metrics.NoOpRecorder{}
	}
	return &Instrumented{next: next, recorder: recorder, tracing: tracing}
}

// Name implements Classifier.
func (c *Instrumented) Name() string { return c.next.Name() }

// Unwrap returns the wrapped classifier.
func (c *Instrumented) Unwrap() Classifier { return c.next }

// Classify implements Classifier.
func (c *Instrumented) Classify(ctx context.Context, in Input) (Prediction, error) {
	var span *sentry.Span
	if c.tracing {
		span = sentry.StartSpan(ctx, "classifier.classify")
		span.Description = c.next.Name()
		span.SetData("size", in.Size)
		ctx = span.Context()
		defer span.Finish()
	}

	pr, tracksPredictions := c.recorder.(predictionRecorder)
	if tracksPredictions {
		pr.PredictionStarted()
		defer pr.PredictionFinished()
	}

	start := time.Now()
	p, err := c.next.Classify(ctx, in)
	c.recorder.RecordDuration(metrics.OpClassify, time.Since(start).Seconds())

	if err != nil {
		category := errors.CategoryOf(err)
		status := metrics.StatusError
		if category == errors.CategoryCancellation || category == errors.CategoryTimeout {
			status = metrics.StatusCancelled
		}
		c.recorder.RecordOperation(metrics.OpClassify, status)
		c.recorder.RecordError(metrics.OpClassify, string(category))
		if span != nil {
			span.Status = sentry.SpanStatusInternalError
			span.SetTag("error_category", string(category))
		}
		return Prediction{}, err
	}

	c.recorder.RecordOperation(metrics.OpClassify, metrics.StatusSuccess)
	if tracksPredictions {
		pr.RecordPrediction(p.Label, string(p.RiskLevel), p.Confidence)
	}
	if span != nil {
		span.Status = sentry.SpanStatusOK
		span.SetTag("label", p.Label)
		span.SetTag("risk_level", string(p.RiskLevel))
	}
	return p, nil
}

var _ Classifier = (*Instrumented)(nil)
