// Package classifier turns uploaded audio clips into sound predictions.
//
// The mock backend samples the static category table after a simulated
// inference delay; the remote backend forwards the clip to an external
// inference service. Both satisfy Classifier so the HTTP layer never
// depends on either.
package classifier

import (
	"context"
	"io"
	"time"

	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/httpclient"
)

// TimestampLayout is the ISO-8601 layout used for prediction timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Input describes an uploaded clip.
type Input struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Prediction is the result of classifying one clip.
type Prediction struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Timestamp  string    `json:"timestamp"`
	Details    *string   `json:"details"`
}

// Classifier classifies uploaded audio.
type Classifier interface {
	Classify(ctx context.Context, in Input) (Prediction, error)
	Name() string
}

// New builds the classifier selected by settings.
func New(settings *conf.ClassifierSettings) (Classifier, error) {
	switch settings.Backend {
	case "", conf.ClassifierBackendMock:
		return NewMock(WithLatency(settings.Latency)), nil
	case conf.ClassifierBackendHTTP:
		client := httpclient.New(&httpclient.Config{DefaultTimeout: settings.Remote.Timeout})
		return NewRemote(settings.Remote.URL, client)
	default:
		return nil, errors.Newf("unknown classifier backend %q", settings.Backend).
			Component("classifier").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func formatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
