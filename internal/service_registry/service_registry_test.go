package service_registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/mocks"
	"github.com/benmeehan/device-bootstrapper/internal/service_registry"
	"github.com/benmeehan/device-bootstrapper/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServiceRegistry_StartAndStopInOrder(t *testing.T) {
	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	var order []string
	first := new(mocks.MockService)
	first.On("Start").Run(func(_ mock.Arguments) { order = append(order, "start first") }).Return(nil)
	first.On("Stop").Run(func(_ mock.Arguments) { order = append(order, "stop first") }).Return(nil)
	second := new(mocks.MockService)
	second.On("Start").Run(func(_ mock.Arguments) { order = append(order, "start second") }).Return(nil)
	second.On("Stop").Run(func(_ mock.Arguments) { order = append(order, "stop second") }).Return(nil)

	sr.RegisterService("first", first)
	sr.RegisterService("second", second)
	sr.RegisterService("first", second) // duplicate is ignored

	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	assert.Equal(t, []string{"first", "second"}, sr.Names())
	assert.Equal(t, []string{"start first", "start second", "stop second", "stop first"}, order)
}

func TestServiceRegistry_StartFailureRollsBack(t *testing.T) {
	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	first := new(mocks.MockService)
	first.On("Start").Return(nil)
	first.On("Stop").Return(nil)
	broken := new(mocks.MockService)
	broken.On("Start").Return(errors.New("boom"))

	sr.RegisterService("first", first)
	sr.RegisterService("broken", broken)

	err := sr.StartServices()

	assert.ErrorContains(t, err, "boom")
	first.AssertCalled(t, "Stop")
	broken.AssertNotCalled(t, "Stop")

	// nothing is running, so stopping is a no-op
	assert.NoError(t, sr.StopServices())
}

func TestServiceRegistry_StopErrorsAreJoined(t *testing.T) {
	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	a := new(mocks.MockService)
	a.On("Start").Return(nil)
	a.On("Stop").Return(errors.New("a failed"))
	b := new(mocks.MockService)
	b.On("Start").Return(nil)
	b.On("Stop").Return(errors.New("b failed"))

	sr.RegisterService("a", a)
	sr.RegisterService("b", b)
	require.NoError(t, sr.StartServices())

	err := sr.StopServices()

	assert.ErrorContains(t, err, "failed to stop a: a failed")
	assert.ErrorContains(t, err, "failed to stop b: b failed")
}

func TestServiceRegistry_RegisterServices(t *testing.T) {
	cfg := &utils.Config{}
	cfg.MQTT.Host = "broker"
	cfg.Services.Status.Enabled = true
	utils.ApplyDefaults(cfg)

	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	require.NoError(t, sr.RegisterServices(cfg, new(mocks.MockConnectionState)))
	assert.Equal(t, []string{"status"}, sr.Names())
	assert.Equal(t, time.Minute, cfg.Services.Status.Interval)
}

func TestServiceRegistry_RegisterServices_Disabled(t *testing.T) {
	cfg := &utils.Config{}
	cfg.MQTT.Host = "broker"
	utils.ApplyDefaults(cfg)

	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	require.NoError(t, sr.RegisterServices(cfg, new(mocks.MockConnectionState)))
	assert.Empty(t, sr.Names())
}

func TestServiceRegistry_RegisterServices_InvalidVersion(t *testing.T) {
	cfg := &utils.Config{}
	cfg.MQTT.Host = "broker"
	cfg.Device.FirmwareVersion = "v-next"
	cfg.Services.Status.Enabled = true
	utils.ApplyDefaults(cfg)

	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	assert.Error(t, sr.RegisterServices(cfg, new(mocks.MockConnectionState)))
	assert.Empty(t, sr.Names())
}
