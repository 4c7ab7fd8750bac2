package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/history"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, in classifier.Input) (classifier.Prediction, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(classifier.Prediction), args.Error(1)
}

func (m *mockClassifier) Name() string { return "fake" }

// failingStore wraps a memory store and fails selected operations.
type failingStore struct {
	*history.MemoryStore
	appendErr error
	lastErr   error
	lenErr    error
}

func (s *failingStore) Append(ctx context.Context, p classifier.Prediction) (history.Entry, error) {
	if s.appendErr != nil {
		return history.Entry{}, s.appendErr
	}
	return s.MemoryStore.Append(ctx, p)
}

func (s *failingStore) Last(ctx context.Context, n int) ([]history.Entry, error) {
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	return s.MemoryStore.Last(ctx, n)
}

func (s *failingStore) Len(ctx context.Context) (int, error) {
	if s.lenErr != nil {
		return 0, s.lenErr
	}
	return s.MemoryStore.Len(ctx)
}

type publishedPrediction struct {
	entry      history.Entry
	prediction classifier.Prediction
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedPrediction
}

func (p *recordingPublisher) PublishPrediction(e history.Entry, pred classifier.Prediction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedPrediction{entry: e, prediction: pred})
}

func (p *recordingPublisher) snapshot() []publishedPrediction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedPrediction(nil), p.published...)
}

type fakeBuildInfo struct {
	started time.Time
}

func (f fakeBuildInfo) Version() string      { return "1.2.3" }
func (f fakeBuildInfo) BuildDate() string    { return "2026-10-01" }
func (f fakeBuildInfo) InstanceID() string   { return "test-instance" }
func (f fakeBuildInfo) StartedAt() time.Time { return f.started }

// newTestEcho returns an echo instance with the api error handler installed.
func newTestEcho(h *Handlers) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(h.log)
	h.Register(e)
	return e
}

// newMultipartRequest builds a POST /predict request with one part per file
// name, all in field.
func newMultipartRequest(t *testing.T, field string, names ...string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("RIFF....WAVEfmt "))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func storeLen(t *testing.T, s history.Store) int {
	t.Helper()
	n, err := s.Len(t.Context())
	require.NoError(t, err)
	return n
}
