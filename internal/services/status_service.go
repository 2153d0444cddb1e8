package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/internal/metrics_collectors"
	"github.com/benmeehan/device-bootstrapper/internal/models"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// publishTimeout bounds how long a single status publish may wait.
const publishTimeout = 5 * time.Second

// ConnectionState exposes the reconnect loop state to the status service.
type ConnectionState interface {
	Attempts() int
	LastMQTTConnection() string
}

// StatusService periodically publishes the device status while connected.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	DeviceName string
	MqttClient mqtt.MQTTClient
	State      ConnectionState
	Memory     metrics_collectors.MetricCollector
	Clock      clock.WithTicker
	Logger     zerolog.Logger

	version   *semver.Version
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusService initializes a new StatusService. firmwareVersion must be a
// semantic version.
func NewStatusService(pubTopic string, interval time.Duration, qos int, deviceName, firmwareVersion string,
	mqttClient mqtt.MQTTClient, state ConnectionState, memory metrics_collectors.MetricCollector,
	logger zerolog.Logger) (*StatusService, error) {

	version, err := semver.NewVersion(firmwareVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid firmware version %q: %w", firmwareVersion, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("status interval must be positive, got %v", interval)
	}

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		DeviceName: deviceName,
		MqttClient: mqttClient,
		State:      state,
		Memory:     memory,
		Clock:      clock.RealClock{},
		Logger:     logger,
		version:    version,
		sessionID:  uuid.New().String(),
	}, nil
}

// SessionID identifies this boot of the device.
func (s *StatusService) SessionID() string {
	return s.sessionID
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.Logger.Info().Str("topic", s.PubTopic).Str("session_id", s.sessionID).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

func (s *StatusService) runStatusLoop() {
	ticker := s.Clock.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if !s.MqttClient.IsConnected() {
				s.Logger.Debug().Msg("MQTT not connected, skipping status")
				continue
			}
			if err := s.publishStatus(s.ctx); err != nil {
				s.Logger.Error().Err(err).Msg("Failed to publish status message")
			}

		case <-s.ctx.Done():
			s.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

// Status builds the current status message.
func (s *StatusService) Status(ctx context.Context) models.DeviceStatus {
	status := models.DeviceStatus{
		DeviceName:      s.DeviceName,
		SessionID:       s.sessionID,
		FirmwareVersion: s.version.String(),
		Timestamp:       s.Clock.Now().UTC(),
		Status:          constants.StatusOnline,
	}
	if s.Memory != nil {
		status.MemoryUsedPercent = s.Memory.Collect(ctx)
	}
	if s.State != nil {
		status.ReconnectAttempts = s.State.Attempts()
		status.LastMQTTConnection = s.State.LastMQTTConnection()
	}
	return status
}

func (s *StatusService) publishStatus(ctx context.Context) error {
	payload, err := json.Marshal(s.Status(ctx))
	if err != nil {
		return fmt.Errorf("serialize status: %w", err)
	}

	token := s.MqttClient.Publish(s.PubTopic, byte(s.QOS), false, payload)
	if err := mqtt.WaitToken(token, publishTimeout); err != nil {
		return err
	}

	s.Logger.Debug().Str("topic", s.PubTopic).Msg("Status published successfully")
	return nil
}
