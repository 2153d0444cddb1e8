package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/bootstrap"
	"github.com/benmeehan/device-bootstrapper/internal/helpers"
	"github.com/benmeehan/device-bootstrapper/internal/queue"
	"github.com/benmeehan/device-bootstrapper/internal/service_registry"
	"github.com/benmeehan/device-bootstrapper/internal/utils"
	"github.com/benmeehan/device-bootstrapper/pkg/button"
	"github.com/benmeehan/device-bootstrapper/pkg/display"
	"github.com/benmeehan/device-bootstrapper/pkg/file"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// dnsTimeout bounds a single broker name lookup during setup.
const dnsTimeout = 5 * time.Second

// app is the device program: setup once, then loop forever.
type app struct {
	config           *utils.Config
	mqttClient       *mqtt.MqttService
	queueManager     *queue.Manager
	bootstrapManager *bootstrap.BootstrapManager
	printer          *helpers.Printer
	button           button.Button
	clock            clock.Clock
	log              zerolog.Logger
}

func newApp(config *utils.Config, fileClient file.FileOperations, log zerolog.Logger) (*app, error) {
	clk := clock.RealClock{}

	var mirror io.Writer
	if config.Display.Mirror {
		mirror = os.Stdout
	}
	screen := display.NewTextDisplay(config.Display.Columns, config.Display.Rows, mirror)
	printer := helpers.NewPrinter(screen, config.Display.Enabled, log)

	var btn button.Button = button.NopButton{}
	if config.Button.SerialPort != "" {
		serialButton, err := button.OpenSerialButton(config.Button.SerialPort, config.Button.BaudRate, log)
		if err != nil {
			return nil, err
		}
		btn = serialButton
	}

	mqttClient := mqtt.NewMqttService(fileClient, log)

	queueManager := queue.NewQueueManager(mqttClient, config.BrokerConfig(), queue.Settings{
		MaxReconnect:           config.Reconnect.MaxReconnect,
		ConnectingMessageLimit: config.Reconnect.ConnectingMessageLimit,
		OverflowGuard:          config.Reconnect.OverflowGuard,
		RetryDelay:             config.Reconnect.RetryDelay,
		ConnectedDelay:         config.Reconnect.ConnectedDelay,
		ConnectTimeout:         config.MQTT.ConnectTimeout,
	}, printer, clk, log)

	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, log)
	serviceRegistry.Clock = clk
	if err := serviceRegistry.RegisterServices(config, queueManager); err != nil {
		return nil, err
	}

	bootstrapManager := bootstrap.NewBootstrapManager(bootstrap.Options{
		Queue:              queueManager,
		Printer:            printer,
		Services:           serviceRegistry,
		Probe:              bootstrap.ResolveHost(config.MQTT.Host, dnsTimeout),
		Clock:              clk,
		MaxNetworkAttempts: config.Reconnect.MaxReconnect,
		NetworkRetryDelay:  config.Reconnect.RetryDelay,
	}, log)

	return &app{
		config:           config,
		mqttClient:       mqttClient,
		queueManager:     queueManager,
		bootstrapManager: bootstrapManager,
		printer:          printer,
		button:           btn,
		clock:            clk,
		log:              log,
	}, nil
}

func (a *app) setup(ctx context.Context) error {
	a.log.Info().Str("device", a.config.Device.Name).Msg("setup")

	// Bootstrap setup() with network and MQTT functions
	if err := a.bootstrapManager.BootstrapSetup(ctx, a, a.callback); err != nil {
		return err
	}

	// ENTER YOUR CODE HERE

	return nil
}

// ManageDisconnections powers off peripherals once MQTT stays unreachable.
func (a *app) ManageDisconnections() {
	a.log.Warn().Msg("Powering off peripherals")
	a.printer.PowerOff()
}

// ManageQueueSubscription subscribes the configured topics on every fresh session.
func (a *app) ManageQueueSubscription() {
	for _, sub := range a.config.MQTT.Subscriptions {
		// nil handler routes messages to callback
		token := a.mqttClient.Subscribe(sub.Topic, byte(sub.QOS), nil)
		if err := mqtt.WaitToken(token, a.config.MQTT.ConnectTimeout); err != nil {
			a.log.Error().Err(err).Str("topic", sub.Topic).Msg("Failed to subscribe")
			continue
		}
		a.log.Info().Str("topic", sub.Topic).Int("qos", sub.QOS).Msg("Subscribed")
	}
}

// ManageHardwareButton polls the hardware button.
func (a *app) ManageHardwareButton() {
	if a.button.Poll() {
		a.log.Info().Msg("Hardware button pressed")
	}
}

// callback handles every message on the subscribed topics.
func (a *app) callback(topic string, payload []byte) {
	a.log.Info().Str("topic", topic).Int("bytes", len(payload)).Msg("Message received")
	a.queueManager.SetLastMQTTConnection(a.clock.Now().UTC().Format(time.RFC3339))
}

func (a *app) loop(ctx context.Context) {
	// Bootstrap loop() with network and MQTT functions
	if err := a.bootstrapManager.BootstrapLoop(ctx, a); err != nil {
		return
	}

	// ENTER YOUR CODE HERE

	a.log.Debug().Msg("Hello World")

	select {
	case <-ctx.Done():
	case <-a.clock.After(a.config.LoopInterval):
	}
}

func (a *app) shutdown() {
	if err := a.bootstrapManager.Shutdown(); err != nil {
		a.log.Error().Err(err).Msg("Failed to stop services")
	}
	a.mqttClient.Disconnect(250)
	if closer, ok := a.button.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close button")
		}
	}
}
