// Package queue owns the MQTT session of the device: client setup and the
// blocking reconnect loop.
package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/internal/helpers"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// Client is the MQTT client the manager drives.
type Client interface {
	mqtt.MQTTClient
	Setup(cfg mqtt.BrokerConfig, callback mqtt.MessageCallback) error
}

// Settings tunes the reconnect loop.
type Settings struct {
	MaxReconnect           int
	ConnectingMessageLimit int
	OverflowGuard          int
	RetryDelay             time.Duration
	ConnectedDelay         time.Duration
	ConnectTimeout         time.Duration
}

// DefaultSettings returns the stock reconnect timings.
func DefaultSettings() Settings {
	return Settings{
		MaxReconnect:           constants.MaxReconnect,
		ConnectingMessageLimit: constants.ConnectingMessageLimit,
		OverflowGuard:          constants.AttemptsOverflowGuard,
		RetryDelay:             constants.RetryDelay,
		ConnectedDelay:         constants.Delay2000,
		ConnectTimeout:         constants.ConnectTimeout,
	}
}

// Manager holds the connection state that survives between reconnects.
type Manager struct {
	client   Client
	broker   mqtt.BrokerConfig
	settings Settings
	printer  *helpers.Printer
	clock    clock.Clock
	Logger   zerolog.Logger

	mu                  sync.RWMutex
	attempts            int
	lastMQTTConnection  string
	disconnectSignalled bool
}

// NewQueueManager creates a Manager. A nil clk uses the real clock.
func NewQueueManager(client Client, broker mqtt.BrokerConfig, settings Settings, printer *helpers.Printer,
	clk clock.Clock, logger zerolog.Logger) *Manager {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Manager{
		client:             client,
		broker:             broker,
		settings:           settings,
		printer:            printer,
		clock:              clk,
		Logger:             logger,
		lastMQTTConnection: constants.OffCmd,
	}
}

// SetupMQTTQueue configures the client with the broker address and the
// message callback. It does not connect.
func (m *Manager) SetupMQTTQueue(callback mqtt.MessageCallback) error {
	return m.client.Setup(m.broker, callback)
}

// Connected reports whether the MQTT session is up.
func (m *Manager) Connected() bool {
	return m.client.IsConnected()
}

// Attempts returns the current failed attempt counter.
func (m *Manager) Attempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attempts
}

// LastMQTTConnection returns the last connection flag.
func (m *Manager) LastMQTTConnection() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastMQTTConnection
}

// SetLastMQTTConnection records the latest connection update, usually from the message callback.
func (m *Manager) SetLastMQTTConnection(value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMQTTConnection = value
}

// Reconnect blocks until the client is connected. It never gives up on its
// own: reaching MaxReconnect only signals h.ManageDisconnections. It returns
// early only with ctx.Err() when ctx is cancelled.
func (m *Manager) Reconnect(ctx context.Context, h Handler) error {
	for !m.client.IsConnected() {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempts := m.Attempts()

		m.printer.Clear()
		if attempts <= m.settings.ConnectingMessageLimit {
			m.printer.Println(constants.MsgConnectingTo)
			m.printer.Println(constants.MsgMQTTBroker)
		}
		m.printer.Show()

		h.ManageHardwareButton()

		err := mqtt.WaitToken(m.client.Connect(), m.settings.ConnectTimeout+constants.ConnectWaitMargin)
		if err != nil && m.client.IsConnected() {
			m.Logger.Debug().Err(err).Msg("MQTT session came up after the connect wait expired")
			err = nil
		}
		if err == nil {
			m.onConnected(h)
			continue
		}

		m.onFailure(h, attempts, err)
		m.clock.Sleep(m.settings.RetryDelay)
	}

	return nil
}

func (m *Manager) onConnected(h Handler) {
	m.printer.PowerOn()
	m.printer.Println("")
	m.printer.Println(constants.MsgConnected)
	m.printer.Println("")
	m.printer.Println(constants.MsgReadingData)
	m.printer.Println(constants.MsgTheNetwork)
	m.printer.Show()

	m.Logger.Info().Str("broker", m.broker.URL()).Int("attempts", m.Attempts()).Msg("Connected to MQTT broker")

	h.ManageQueueSubscription()

	m.clock.Sleep(m.settings.ConnectedDelay)

	m.mu.Lock()
	m.attempts = 0
	m.lastMQTTConnection = constants.OffCmd
	m.disconnectSignalled = false
	m.mu.Unlock()
}

func (m *Manager) onFailure(h Handler, attempts int, err error) {
	m.printer.Println(constants.MsgAttempts)
	m.printer.Println(strconv.Itoa(attempts))
	m.printer.Show()

	m.Logger.Warn().Err(err).Int("attempts", attempts).Msg("MQTT connection attempt failed")

	if attempts >= m.settings.MaxReconnect {
		m.mu.Lock()
		signal := !m.disconnectSignalled
		m.disconnectSignalled = true
		m.mu.Unlock()

		if signal {
			m.printer.Println(constants.MsgMaxRetry)
			m.printer.Show()
			m.Logger.Error().Int("attempts", attempts).Msg("Max MQTT retry reached, powering off peripherals")
			h.ManageDisconnections()
		}
	}

	m.mu.Lock()
	if m.attempts > m.settings.OverflowGuard {
		m.attempts = 0
	} else {
		m.attempts++
	}
	m.mu.Unlock()
}
