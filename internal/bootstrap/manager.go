// Package bootstrap is the glue between the device entry point and the MQTT
// queue: one-time setup and the per-loop connection check.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/internal/helpers"
	"github.com/benmeehan/device-bootstrapper/internal/queue"
	"github.com/benmeehan/device-bootstrapper/internal/utils"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// Services is the background service lifecycle started by setup.
type Services interface {
	StartServices() error
	StopServices() error
}

// Options configures a BootstrapManager.
type Options struct {
	Queue    *queue.Manager
	Printer  *helpers.Printer
	Services Services
	Probe    NetworkProbe
	Clock    clock.Clock

	// MaxNetworkAttempts and NetworkRetryDelay drive the network wait at setup.
	MaxNetworkAttempts int
	NetworkRetryDelay  time.Duration
}

// BootstrapManager runs the setup and loop phases of the device.
type BootstrapManager struct {
	opts       Options
	dispatcher *utils.WorkerPool
	Logger     zerolog.Logger
}

// NewBootstrapManager creates a BootstrapManager.
func NewBootstrapManager(opts Options, logger zerolog.Logger) *BootstrapManager {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.MaxNetworkAttempts == 0 {
		opts.MaxNetworkAttempts = constants.MaxReconnect
	}
	if opts.NetworkRetryDelay == 0 {
		opts.NetworkRetryDelay = constants.RetryDelay
	}
	return &BootstrapManager{
		opts:   opts,
		Logger: logger,
	}
}

// BootstrapSetup shows the boot screen, waits for the network, configures
// the MQTT queue and starts background services. Incoming messages are
// handed to callback one at a time, off the MQTT client's goroutine.
// The connection itself is made by the first BootstrapLoop.
func (b *BootstrapManager) BootstrapSetup(ctx context.Context, h queue.Handler, callback mqtt.MessageCallback) error {
	if b.dispatcher != nil {
		return errors.New("bootstrap setup already ran")
	}

	b.opts.Printer.Clear()
	b.opts.Printer.Println(constants.MsgSetup)
	b.opts.Printer.Show()

	err := waitForNetwork(ctx, b.opts.Probe, h, b.opts.MaxNetworkAttempts, b.opts.NetworkRetryDelay,
		b.opts.Clock, b.Logger)
	if err != nil {
		return fmt.Errorf("wait for network: %w", err)
	}

	dispatcher := utils.NewWorkerPool(1)
	dispatch := func(topic string, payload []byte) {
		if callback == nil {
			return
		}
		if !dispatcher.Submit(func() { callback(topic, payload) }) {
			b.Logger.Debug().Str("topic", topic).Msg("Dropping message received during shutdown")
		}
	}

	if err := b.opts.Queue.SetupMQTTQueue(dispatch); err != nil {
		dispatcher.Shutdown()
		return fmt.Errorf("setup mqtt queue: %w", err)
	}

	if b.opts.Services != nil {
		if err := b.opts.Services.StartServices(); err != nil {
			dispatcher.Shutdown()
			return fmt.Errorf("start services: %w", err)
		}
	}

	b.dispatcher = dispatcher
	b.Logger.Info().Msg("Bootstrap setup completed")
	return nil
}

// BootstrapLoop restores the MQTT session when it is down. It blocks until
// connected or until ctx is cancelled.
func (b *BootstrapManager) BootstrapLoop(ctx context.Context, h queue.Handler) error {
	if b.opts.Queue.Connected() {
		return nil
	}
	return b.opts.Queue.Reconnect(ctx, h)
}

// Shutdown stops background services and drains pending message callbacks.
func (b *BootstrapManager) Shutdown() error {
	var err error
	if b.opts.Services != nil {
		err = b.opts.Services.StopServices()
	}
	if b.dispatcher != nil {
		b.dispatcher.Shutdown()
	}
	return err
}
