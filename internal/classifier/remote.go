package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/httpclient"
	"github.com/tphakala/acousticvault/internal/logger"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 512
)

// Remote forwards clips to an external inference service that speaks the
// same POST /predict contract as this service.
type Remote struct {
	endpoint string
	client   *httpclient.Client
}

// NewRemote creates a remote classifier for baseURL. "/predict" is appended.
func NewRemote(baseURL string, client *httpclient.Client) (*Remote, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Newf("invalid remote classifier url %q", logger.RedactURL(baseURL)).
			Component("classifier").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if client == nil {
		client = httpclient.New(nil)
	}
	return &Remote{
		endpoint: strings.TrimRight(baseURL, "/") + "/predict",
		client:   client,
	}, nil
}

// Name implements Classifier.
func (r *Remote) Name() string { return "remote" }

// Endpoint returns the full predict URL.
func (r *Remote) Endpoint() string { return r.endpoint }

// Classify implements Classifier.
func (r *Remote) Classify(ctx context.Context, in Input) (Prediction, error) {
	start := time.Now()

	resp, err := r.client.PostMultipart(ctx, r.endpoint, httpclient.FilePart{
		FieldName:   "file",
		FileName:    in.Filename,
		ContentType: in.ContentType,
		Content:     in.Content,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Prediction{}, errors.New(ctxErr).
				Component("classifier").
				Category(contextErrorCategory(ctxErr)).
				Context("backend", r.Name()).
				Build()
		}
		return Prediction{}, r.upstreamError(err, start).Build()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			GetLogger().Debug("failed to close upstream response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return Prediction{}, r.upstreamError(
			errors.Newf("inference service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))).Build(),
			start).
			Context("status_code", resp.StatusCode).
			Build()
	}

	var p Prediction
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&p); err != nil {
		return Prediction{}, r.upstreamError(err, start).Context("stage", "decode").Build()
	}
	if err := validatePrediction(&p); err != nil {
		return Prediction{}, r.upstreamError(err, start).Context("stage", "validate").Build()
	}

	GetLogger().Debug("remote prediction",
		logger.String("label", p.Label),
		logger.Float64("confidence", p.Confidence),
		logger.Duration("elapsed", time.Since(start)))

	return p, nil
}

func (r *Remote) upstreamError(err error, start time.Time) *errors.ErrorBuilder {
	return errors.New(err).
		Component("classifier").
		Category(errors.CategoryUpstream).
		Context("backend", r.Name()).
		NetworkContext(r.endpoint, 0).
		Timing("remote-classify", time.Since(start))
}

func validatePrediction(p *Prediction) error {
	switch {
	case p.Label == "":
		return errors.NewStd("prediction has empty label")
	case p.Confidence < 0 || p.Confidence > 1:
		return errors.NewStd("prediction confidence outside [0,1]")
	case !p.RiskLevel.Valid():
		return errors.NewStd("prediction has invalid risk level")
	}
	if p.Timestamp == "" {
		p.Timestamp = formatTimestamp(time.Now())
	}
	return nil
}

var _ Classifier = (*Remote)(nil)
