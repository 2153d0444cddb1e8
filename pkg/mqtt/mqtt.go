package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/device-bootstrapper/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured is returned when the client is used before Setup.
	ErrNotConfigured = errors.New("mqtt client is not configured")

	// ErrConnectTimeout is returned when a connection attempt does not complete in time.
	ErrConnectTimeout = errors.New("mqtt connect timed out")
)

// MQTTClient defines the interface for an MQTT client.
type MQTTClient interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// MessageCallback receives every message delivered on a subscribed topic.
type MessageCallback func(topic string, payload []byte)

// Will describes the last will the broker publishes on an unexpected disconnect.
// An empty Topic disables the will.
type Will struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// BrokerConfig carries everything needed to reach the broker.
type BrokerConfig struct {
	Host           string
	Port           int
	TLS            bool
	CACertificate  string
	ClientID       string
	Username       string
	Password       string
	Will           Will
	CleanSession   bool
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
}

// URL returns the broker URL in the form paho expects.
func (c BrokerConfig) URL() string {
	scheme := "tcp"
	if c.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// MqttService provides methods for MQTT operations.
type MqttService struct {
	fileClient file.FileOperations
	Logger     zerolog.Logger

	// NewClient builds the underlying paho client. Replaced in tests.
	NewClient func(opts *mqtt.ClientOptions) mqtt.Client

	mu     sync.RWMutex
	client mqtt.Client
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		Logger:     logger,
		NewClient:  mqtt.NewClient,
	}
}

// Setup configures the client with the broker address and the message callback.
// It does not connect; reconnection is driven by the caller.
func (s *MqttService) Setup(cfg BrokerConfig, callback MessageCallback) error {
	opts, err := s.buildClientOptions(cfg)
	if err != nil {
		return err
	}

	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		if callback == nil {
			return
		}
		callback(msg.Topic(), msg.Payload())
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.Logger.Warn().Err(err).Msg("MQTT connection lost")
	})

	s.mu.Lock()
	s.client = s.NewClient(opts)
	s.mu.Unlock()

	s.Logger.Info().Str("broker", cfg.URL()).Str("client_id", cfg.ClientID).Msg("MQTT client configured")
	return nil
}

func (s *MqttService) buildClientOptions(cfg BrokerConfig) (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL())
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	if cfg.Will.Topic != "" {
		opts.SetWill(cfg.Will.Topic, cfg.Will.Payload, cfg.Will.QoS, cfg.Will.Retained)
	}

	opts.SetCleanSession(cfg.CleanSession)

	// Reconnection is owned by the queue manager.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}

	if cfg.TLS {
		tlsConfig, err := s.tlsConfig(cfg.CACertificate)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

func (s *MqttService) tlsConfig(caCertPath string) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caCertPath == "" {
		return tlsConfig, nil
	}

	exists, err := s.fileClient.IsFileExists(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check CA certificate: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("CA certificate %s not found", caCertPath)
	}

	caCert, err := s.fileClient.ReadFileRaw(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA certificate from %s", caCertPath)
	}
	tlsConfig.RootCAs = caCertPool
	return tlsConfig, nil
}

func (s *MqttService) current() mqtt.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Connect starts a single connection attempt to the MQTT broker.
func (s *MqttService) Connect() mqtt.Token {
	client := s.current()
	if client == nil {
		return newErrorToken(ErrNotConfigured)
	}
	return client.Connect()
}

// IsConnected reports whether the client currently holds a session.
func (s *MqttService) IsConnected() bool {
	client := s.current()
	return client != nil && client.IsConnected()
}

// Publish sends a message to the specified topic.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	client := s.current()
	if client == nil {
		return newErrorToken(ErrNotConfigured)
	}
	return client.Publish(topic, qos, retained, payload)
}

// Subscribe subscribes to the specified topic with a message handler.
// A nil handler routes messages to the callback given to Setup.
func (s *MqttService) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	client := s.current()
	if client == nil {
		return newErrorToken(ErrNotConfigured)
	}
	return client.Subscribe(topic, qos, callback)
}

// Unsubscribe unsubscribes from the specified topics.
func (s *MqttService) Unsubscribe(topics ...string) mqtt.Token {
	client := s.current()
	if client == nil {
		return newErrorToken(ErrNotConfigured)
	}
	return client.Unsubscribe(topics...)
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if client := s.current(); client != nil {
		client.Disconnect(quiesce)
	}
}

// WaitToken waits for token up to timeout and returns its outcome.
func WaitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w after %v", ErrConnectTimeout, timeout)
	}
	return token.Error()
}
