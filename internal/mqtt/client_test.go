package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho stands in for a broker connection. Methods the client never
// calls fall through to the nil embedded interface.
type fakePaho struct {
	paho.Client

	opts         *paho.ClientOptions
	connectToken paho.Token
	publishToken paho.Token

	mu           sync.Mutex
	connected    bool
	messages     []published
	disconnected bool
}

func (f *fakePaho) Connect() paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ft, ok := f.connectToken.(*fakeToken); ok {
		select {
		case <-ft.done:
			f.connected = ft.err == nil
		default:
		}
	}
	return f.connectToken
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, _ := payload.([]byte)
	f.messages = append(f.messages, published{topic: topic, qos: qos, retained: retained, payload: data})
	return f.publishToken
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnected = true
}

func newFakeClient(t *testing.T, fake *fakePaho, m *metrics.MQTTMetrics) *client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Broker = "tcp://127.0.0.1:1883"
	cfg.ClientID = "acousticvault-test"
	cfg.Username = "vault"
	cfg.Password = "secret"
	cfg.ConnectTimeout = 100 * time.Millisecond
	cfg.PublishTimeout = 100 * time.Millisecond

	c, err := NewClient(cfg, m)
	require.NoError(t, err)
	impl := c.(*client)
	impl.newPaho = func(opts *paho.ClientOptions) paho.Client {
		fake.opts = opts
		return fake
	}
	return impl
}

func TestNewClientRejectsInvalidBroker(t *testing.T) {
	for _, broker := range []string{"", "localhost", "://nohost"} {
		cfg := DefaultConfig()
		cfg.Broker = broker
		_, err := NewClient(cfg, nil)
		require.Error(t, err, broker)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	}
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(&conf.MQTTSettings{Broker: "tcp://broker.local:1883", Topic: "sounds/live"})
	assert.Equal(t, "sounds/live", cfg.Topic)
	assert.Contains(t, cfg.ClientID, "acousticvault-")

	other := ConfigFromSettings(&conf.MQTTSettings{Broker: "tcp://broker.local:1883"})
	assert.Equal(t, conf.DefaultMQTTTopic, other.Topic)
	assert.NotEqual(t, cfg.ClientID, other.ClientID)

	fixed := ConfigFromSettings(&conf.MQTTSettings{Broker: "tcp://broker.local:1883", ClientID: "vault-1"})
	assert.Equal(t, "vault-1", fixed.ClientID)
}

func TestClientConnectPublishDisconnect(t *testing.T) {
	m, err := metrics.NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	fake := &fakePaho{connectToken: completedToken(nil), publishToken: completedToken(nil)}
	c := newFakeClient(t, fake, m)

	require.NoError(t, c.Connect(t.Context()))
	assert.True(t, c.IsConnected())
	assert.Equal(t, "acousticvault-test", fake.opts.ClientID)
	assert.Equal(t, "vault", fake.opts.Username)
	assert.True(t, fake.opts.AutoReconnect)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)

	require.NoError(t, c.Publish(t.Context(), "sounds", []byte(`{"id":1}`)))
	require.Len(t, fake.messages, 1)
	assert.Equal(t, "sounds", fake.messages[0].topic)
	assert.JSONEq(t, `{"id":1}`, string(fake.messages[0].payload))
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesDelivered), 0)

	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.True(t, fake.disconnected)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ConnectionStatus), 0)

	// second disconnect is a no-op
	c.Disconnect()
}

func TestClientConnectFailure(t *testing.T) {
	fake := &fakePaho{connectToken: completedToken(assert.AnError)}
	c := newFakeClient(t, fake, nil)

	err := c.Connect(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
	assert.False(t, c.IsConnected())
}

func TestClientConnectTimeout(t *testing.T) {
	fake := &fakePaho{connectToken: pendingToken()}
	c := newFakeClient(t, fake, nil)

	start := time.Now()
	err := c.Connect(t.Context())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClientPublishWhileDisconnected(t *testing.T) {
	c := newFakeClient(t, &fakePaho{}, nil)

	err := c.Publish(t.Context(), "sounds", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}

func TestClientPublishCancelled(t *testing.T) {
	fake := &fakePaho{connectToken: completedToken(nil), publishToken: pendingToken()}
	c := newFakeClient(t, fake, nil)
	require.NoError(t, c.Connect(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := c.Publish(ctx, "sounds", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
}
