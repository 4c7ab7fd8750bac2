package classifier

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/httpclient"
)

const inferenceURL = "http://inference.local:9000"

func newMockedRemote(t *testing.T) (*Remote, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := httpclient.New(&httpclient.Config{Transport: transport, DefaultTimeout: 2 * time.Second})
	t.Cleanup(client.Close)

	r, err := NewRemote(inferenceURL+"/", client)
	require.NoError(t, err)
	return r, transport
}

func clip() Input {
	return Input{Filename: "pond.wav", ContentType: "audio/wav", Size: 8, Content: strings.NewReader("RIFFdata")}
}

func TestNewRemoteValidatesURL(t *testing.T) {
	for _, bad := range []string{"", "inference.local", "ftp://inference.local", "http://"} {
		_, err := NewRemote(bad, nil)
		assert.Error(t, err, bad)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	}

	r, err := NewRemote("https://inference.local/v1/", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://inference.local/v1/predict", r.Endpoint())
	assert.Equal(t, "remote", r.Name())
}

func TestRemoteClassifySuccess(t *testing.T) {
	r, transport := newMockedRemote(t)

	transport.RegisterResponder(http.MethodPost, inferenceURL+"/predict",
		func(req *http.Request) (*http.Response, error) {
			file, header, err := req.FormFile("file")
			if err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			defer file.Close()
			data, _ := io.ReadAll(file)
			if header.Filename != "pond.wav" || string(data) != "RIFFdata" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "unexpected upload"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"label":      "Frog Calls",
				"confidence": 0.9731,
				"risk_level": "Low",
				"timestamp":  "2026-05-01T10:00:00.000000+00:00",
				"details":    "Healthy ecosystem indicator",
			})
		})

	p, err := r.Classify(t.Context(), clip())
	require.NoError(t, err)

	assert.Equal(t, "Frog Calls", p.Label)
	assert.InDelta(t, 0.9731, p.Confidence, 1e-9)
	assert.Equal(t, RiskLow, p.RiskLevel)
	require.NotNil(t, p.Details)
	assert.Equal(t, "Healthy ecosystem indicator", *p.Details)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestRemoteClassifyNullDetailsAndMissingTimestamp(t *testing.T) {
	r, transport := newMockedRemote(t)

	transport.RegisterResponder(http.MethodPost, inferenceURL+"/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"label":"Silence","confidence":0.5,"risk_level":"Low","details":null}`))

	p, err := r.Classify(t.Context(), clip())
	require.NoError(t, err)
	assert.Nil(t, p.Details)
	_, err = time.Parse(TimestampLayout, p.Timestamp)
	assert.NoError(t, err)
}

func TestRemoteClassifyUpstreamFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "model crashed")},
		{"not json", httpmock.NewStringResponder(http.StatusOK, "<html>")},
		{"bad risk level", httpmock.NewStringResponder(http.StatusOK, `{"label":"Silence","confidence":0.9,"risk_level":"Severe"}`)},
		{"empty label", httpmock.NewStringResponder(http.StatusOK, `{"label":"","confidence":0.9,"risk_level":"Low"}`)},
		{"confidence out of range", httpmock.NewStringResponder(http.StatusOK, `{"label":"Silence","confidence":1.5,"risk_level":"Low"}`)},
		{"transport error", httpmock.NewErrorResponder(io.ErrUnexpectedEOF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, transport := newMockedRemote(t)
			transport.RegisterResponder(http.MethodPost, inferenceURL+"/predict", tt.responder)

			_, err := r.Classify(t.Context(), clip())
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryUpstream), "got category %s", errors.CategoryOf(err))
		})
	}
}

func TestRemoteClassifyCancelled(t *testing.T) {
	r, transport := newMockedRemote(t)
	transport.RegisterResponder(http.MethodPost, inferenceURL+"/predict",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := r.Classify(ctx, clip())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}
