package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/postprocess"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// token is a paho.Token that is either complete or never completes
type token struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *token {
	t := &token{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *token {
	return &token{done: make(chan struct{})}
}

func (t *token) Wait() bool {
	<-t.done
	return true
}

func (t *token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *token) Done() <-chan struct{} { return t.done }
func (t *token) Error() error          { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected    bool
	connectToken paho.Token
	publishToken paho.Token
	published    []published
	disconnected bool
}

func (f *fakeClient) Connect() paho.Token {
	f.connected = true
	return f.connectToken
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	f.published = append(f.published, published{topic, retained, payload.([]byte)})
	return f.publishToken
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Disconnect(quiesce uint) {
	f.connected = false
	f.disconnected = true
}

func entry() ledger.Entry {
	return ledger.Entry{
		Index: 2,
		Accepted: postprocess.Accepted{
			Detection: postprocess.Detection{Label: "tungro", Confidence: 0.91},
			Color:     "pink",
			Remedy:    "Buprofezin or Imidacloprid",
		},
		Location:   geo.Point{Lat: 16.4419, Lon: 80.622},
		RecordedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewPublisherValidation(t *testing.T) {

	_, err := NewPublisher(Config{Topic: "a"}, nil)
	assert.Error(t, err)

	_, err = NewPublisher(Config{Broker: "tcp://localhost:1883"}, nil)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {

	fc := &fakeClient{connectToken: doneToken(nil), publishToken: doneToken(nil)}
	cfg := DefaultConfig()
	cfg.Retain = true

	p := newPublisher(cfg, fc, zap.NewNop())

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Publish(context.Background(), "abc", entry()))

	require.Len(t, fc.published, 1)
	assert.Equal(t, "cropwatch/detections", fc.published[0].topic)
	assert.True(t, fc.published[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &got))

	assert.Equal(t, "abc", got["session"])
	assert.Equal(t, "tungro", got["label"])
	assert.Equal(t, 0.91, got["confidence"])
	assert.Equal(t, map[string]any{"lat": 16.4419, "lon": 80.622}, got["coordinates"])
	assert.Equal(t, "Buprofezin or Imidacloprid", got["remedy"])

	require.NoError(t, p.Close())
	assert.True(t, fc.disconnected)
}

func TestPublishNotConnected(t *testing.T) {

	fc := &fakeClient{publishToken: doneToken(nil)}
	p := newPublisher(DefaultConfig(), fc, zap.NewNop())

	assert.Error(t, p.Publish(context.Background(), "abc", entry()))
	assert.Empty(t, fc.published)
}

func TestPublishErrors(t *testing.T) {

	boom := errors.New("broker refused")

	fc := &fakeClient{connected: true, publishToken: doneToken(boom)}
	p := newPublisher(DefaultConfig(), fc, zap.NewNop())

	assert.ErrorIs(t, p.Publish(context.Background(), "abc", entry()), boom)

	cfg := DefaultConfig()
	cfg.PublishTimeout = 10 * time.Millisecond

	fc = &fakeClient{connected: true, publishToken: pendingToken()}
	p = newPublisher(cfg, fc, zap.NewNop())

	assert.Error(t, p.Publish(context.Background(), "abc", entry()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p = newPublisher(DefaultConfig(), fc, zap.NewNop())
	assert.ErrorIs(t, p.Publish(ctx, "abc", entry()), context.Canceled)
}

func TestConnectTimeout(t *testing.T) {

	cfg := DefaultConfig()
	cfg.ConnectTimeout = 10 * time.Millisecond

	p := newPublisher(cfg, &fakeClient{connectToken: pendingToken()}, zap.NewNop())

	assert.Error(t, p.Connect(context.Background()))
}

func TestRecorderLogsFailure(t *testing.T) {

	fc := &fakeClient{publishToken: doneToken(nil)}
	p := newPublisher(DefaultConfig(), fc, zap.NewNop())

	// not connected, must not panic or block
	p.Recorder(context.Background())("abc", entry())
	assert.Empty(t, fc.published)
}
