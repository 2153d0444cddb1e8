package bootstrap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/bootstrap"
	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/internal/helpers"
	"github.com/benmeehan/device-bootstrapper/internal/mocks"
	"github.com/benmeehan/device-bootstrapper/internal/queue"
	"github.com/benmeehan/device-bootstrapper/pkg/display"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type servicesMock struct {
	mock.Mock
}

func (s *servicesMock) StartServices() error { return s.Called().Error(0) }
func (s *servicesMock) StopServices() error  { return s.Called().Error(0) }

type fixture struct {
	client   *mocks.MockMQTTClient
	display  *display.TextDisplay
	services *servicesMock
	clock    *testingclock.FakeClock
	queue    *queue.Manager
	manager  *bootstrap.BootstrapManager
}

func newFixture(probe bootstrap.NetworkProbe) *fixture {
	f := &fixture{
		client:   new(mocks.MockMQTTClient),
		display:  display.NewTextDisplay(0, 0, nil),
		services: new(servicesMock),
		clock:    testingclock.NewFakeClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	printer := helpers.NewPrinter(f.display, true, zerolog.Nop())
	f.queue = queue.NewQueueManager(f.client, mqtt.BrokerConfig{Host: "broker", Port: 1883},
		queue.DefaultSettings(), printer, f.clock, zerolog.Nop())
	f.manager = bootstrap.NewBootstrapManager(bootstrap.Options{
		Queue:    f.queue,
		Printer:  printer,
		Services: f.services,
		Probe:    probe,
		Clock:    f.clock,
	}, zerolog.Nop())
	return f
}

func completedToken(err error) *mocks.MockToken {
	token := new(mocks.MockToken)
	token.On("WaitTimeout", mock.Anything).Return(true)
	token.On("Error").Return(err)
	return token
}

func TestBootstrapSetup_DispatchesMessagesToCallback(t *testing.T) {
	f := newFixture(nil)

	var dispatch mqtt.MessageCallback
	f.client.On("Setup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { dispatch = args.Get(1).(mqtt.MessageCallback) }).
		Return(nil)
	f.services.On("StartServices").Return(nil)
	f.services.On("StopServices").Return(nil)

	received := make(chan string, 1)
	err := f.manager.BootstrapSetup(context.Background(), queue.HandlerFuncs{}, func(topic string, payload []byte) {
		received <- topic + "=" + string(payload)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{constants.MsgSetup}, f.display.Frame())

	require.NotNil(t, dispatch)
	dispatch("lights/set", []byte("ON"))

	select {
	case got := <-received:
		assert.Equal(t, "lights/set=ON", got)
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}

	assert.Error(t, f.manager.BootstrapSetup(context.Background(), queue.HandlerFuncs{}, nil),
		"setup runs once")

	require.NoError(t, f.manager.Shutdown())
	f.services.AssertExpectations(t)
}

func TestBootstrapSetup_QueueError(t *testing.T) {
	f := newFixture(nil)
	f.client.On("Setup", mock.Anything, mock.Anything).Return(errors.New("bad ca"))

	err := f.manager.BootstrapSetup(context.Background(), queue.HandlerFuncs{}, nil)

	assert.ErrorContains(t, err, "bad ca")
	f.services.AssertNotCalled(t, "StartServices")
}

func TestBootstrapSetup_ServicesError(t *testing.T) {
	f := newFixture(nil)
	f.client.On("Setup", mock.Anything, mock.Anything).Return(nil)
	f.services.On("StartServices").Return(errors.New("status: invalid version"))

	err := f.manager.BootstrapSetup(context.Background(), queue.HandlerFuncs{}, nil)

	assert.ErrorContains(t, err, "invalid version")
}

func TestBootstrapSetup_WaitsForNetwork(t *testing.T) {
	probes := 0
	probe := func(context.Context) error {
		probes++
		if probes <= constants.MaxReconnect+2 {
			return errors.New("no route to host")
		}
		return nil
	}
	f := newFixture(probe)
	f.client.On("Setup", mock.Anything, mock.Anything).Return(nil)
	f.services.On("StartServices").Return(nil)

	start := f.clock.Now()
	var buttons, disconnections int
	err := f.manager.BootstrapSetup(context.Background(), queue.HandlerFuncs{
		HardwareButton: func() { buttons++ },
		Disconnections: func() { disconnections++ },
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, constants.MaxReconnect+3, probes)
	assert.Equal(t, probes, buttons)
	assert.Equal(t, 1, disconnections)
	assert.Equal(t, time.Duration(constants.MaxReconnect+2)*constants.RetryDelay, f.clock.Since(start))
}

func TestBootstrapSetup_NetworkWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	probe := func(context.Context) error {
		cancel()
		return errors.New("no route to host")
	}
	f := newFixture(probe)

	err := f.manager.BootstrapSetup(ctx, queue.HandlerFuncs{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	f.client.AssertNotCalled(t, "Setup", mock.Anything, mock.Anything)
}

func TestBootstrapLoop_ConnectedDoesNothing(t *testing.T) {
	f := newFixture(nil)
	f.client.On("IsConnected").Return(true)

	err := f.manager.BootstrapLoop(context.Background(), queue.HandlerFuncs{})

	assert.NoError(t, err)
	f.client.AssertNotCalled(t, "Connect")
}

func TestBootstrapLoop_ReconnectsAndSubscribes(t *testing.T) {
	f := newFixture(nil)
	f.client.On("IsConnected").Return(false).Times(4)
	f.client.On("IsConnected").Return(true)
	f.client.On("Connect").Return(completedToken(errors.New("refused"))).Once()
	f.client.On("Connect").Return(completedToken(nil)).Once()

	subscriptions := 0
	err := f.manager.BootstrapLoop(context.Background(), queue.HandlerFuncs{
		QueueSubscription: func() { subscriptions++ },
	})

	require.NoError(t, err)
	assert.Equal(t, 1, subscriptions)
	assert.Equal(t, 0, f.queue.Attempts())
	assert.Contains(t, f.display.Frame(), constants.MsgConnected)
	f.client.AssertNumberOfCalls(t, "Connect", 2)
}

func TestResolveHost_IPLiteral(t *testing.T) {
	assert.NoError(t, bootstrap.ResolveHost("192.168.1.3", time.Second)(context.Background()))
}

func TestResolveHost_Unresolvable(t *testing.T) {
	err := bootstrap.ResolveHost("broker.invalid", time.Second)(context.Background())
	assert.Error(t, err)
}
