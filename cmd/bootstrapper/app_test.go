package main

import (
	"testing"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/internal/mocks"
	"github.com/benmeehan/device-bootstrapper/internal/utils"
	"github.com/benmeehan/device-bootstrapper/pkg/file"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSampleConfigLoads(t *testing.T) {
	config, err := utils.LoadConfig("../../configs/config.yaml", file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "ChangeName", config.MQTT.ClientID)
	assert.Equal(t, 500*time.Millisecond, config.Reconnect.RetryDelay)
	assert.Equal(t, 2000*time.Millisecond, config.Reconnect.ConnectedDelay)
}

func newTestApp(t *testing.T) (*app, *mocks.MockMQTTClient) {
	t.Helper()

	config := &utils.Config{}
	config.Device.Name = "ChangeName"
	config.MQTT.Host = "192.168.1.3"
	config.MQTT.Subscriptions = []utils.Subscription{
		{Topic: "ChangeName/set", QOS: 1},
		{Topic: "ChangeName/ota", QOS: 0},
	}
	utils.ApplyDefaults(config)

	a, err := newApp(config, file.NewFileService(), zerolog.Nop())
	require.NoError(t, err)

	client := new(mocks.MockMQTTClient)
	a.mqttClient.NewClient = func(*pahomqtt.ClientOptions) pahomqtt.Client { return client }
	require.NoError(t, a.mqttClient.Setup(config.BrokerConfig(), a.callback))
	return a, client
}

func TestApp_ManageQueueSubscription(t *testing.T) {
	a, client := newTestApp(t)

	ok := new(mocks.MockToken)
	ok.On("WaitTimeout", mock.Anything).Return(true)
	ok.On("Error").Return(nil)
	client.On("Subscribe", "ChangeName/set", byte(1), mock.Anything).Return(ok)
	client.On("Subscribe", "ChangeName/ota", byte(0), mock.Anything).Return(ok)

	a.ManageQueueSubscription()

	client.AssertExpectations(t)
}

func TestApp_CallbackRecordsLastConnection(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, constants.OffCmd, a.queueManager.LastMQTTConnection())

	a.callback("ChangeName/set", []byte(`{"state":"ON"}`))

	_, err := time.Parse(time.RFC3339, a.queueManager.LastMQTTConnection())
	assert.NoError(t, err)
}

func TestApp_ManageHardwareButtonWithoutButton(t *testing.T) {
	a, _ := newTestApp(t)

	// no serial port configured, polling must be a no-op
	a.ManageHardwareButton()
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	config := &utils.Config{}
	config.Logging.Level = "chatty"

	logger := newLogger(config)

	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
