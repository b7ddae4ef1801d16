// Package mqtt publishes recorded detections to an MQTT broker as JSON
// detection records
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/pipeline"
	"go.uber.org/zap"
)

// Config holds the broker connection settings
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic detection records are published to
	Topic          string
	Retain         bool
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// DefaultConfig returns a Config with the default topic and timeouts
func DefaultConfig() Config {
	return Config{
		ClientID:       "cropwatch",
		Topic:          "cropwatch/detections",
		ConnectTimeout: 30 * time.Second,
		PublishTimeout: 10 * time.Second,
	}
}

// client is the part of the paho client the Publisher uses
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// message is the payload of each publication
type message struct {
	Session string `json:"session"`
	Index   int    `json:"index"`
	pipeline.DetectionRecord
	Remedy     string    `json:"remedy"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Publisher sends ledger entries to the broker
type Publisher struct {
	cfg    Config
	client client
	logger *zap.Logger
	mu     sync.Mutex
}

// NewPublisher returns a Publisher for the broker in cfg.  Call Connect
// before publishing.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {

	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not set")
	}

	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic not set")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.Named("mqtt")

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("Connection to MQTT broker lost", zap.String("broker", cfg.Broker), zap.Error(err))
	})

	return newPublisher(cfg, paho.NewClient(opts), logger), nil
}

func newPublisher(cfg Config, c client, logger *zap.Logger) *Publisher {

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}

	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}

	return &Publisher{
		cfg:    cfg,
		client: c,
		logger: logger,
	}
}

// Connect connects to the broker, waiting up to the connect timeout or until
// ctx is done
func (p *Publisher) Connect(ctx context.Context) error {

	token := p.client.Connect()

	if err := wait(ctx, token, p.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("error connecting to %s: %w", p.cfg.Broker, err)
	}

	return nil
}

// Publish sends the entry of the given session as a detection record
func (p *Publisher) Publish(ctx context.Context, session string, e ledger.Entry) error {

	payload, err := json.Marshal(message{
		Session:         session,
		Index:           e.Index,
		DetectionRecord: pipeline.LocationRecord(e),
		Remedy:          e.Remedy,
		RecordedAt:      e.RecordedAt,
	})

	if err != nil {
		return fmt.Errorf("error encoding detection record: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnected() {
		return fmt.Errorf("not connected to mqtt broker")
	}

	token := p.client.Publish(p.cfg.Topic, 0, p.cfg.Retain, payload)

	if err := wait(ctx, token, p.cfg.PublishTimeout); err != nil {
		return fmt.Errorf("error publishing to %s: %w", p.cfg.Topic, err)
	}

	return nil
}

// Recorder returns a callback for pipeline.Config.OnRecord that publishes
// each entry, logging failures so the frame loop is never interrupted
func (p *Publisher) Recorder(ctx context.Context) func(session string, e ledger.Entry) {
	return func(session string, e ledger.Entry) {
		if err := p.Publish(ctx, session, e); err != nil {
			p.logger.Warn("Could not publish detection",
				zap.String("session", session), zap.Int("index", e.Index), zap.Error(err))
		}
	}
}

// Close disconnects from the broker
func (p *Publisher) Close() error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}

	return nil
}

// wait blocks until the token completes, the timeout passes or ctx is done
func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
