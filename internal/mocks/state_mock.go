package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockConnectionState is a mock implementation of services.ConnectionState
type MockConnectionState struct {
	mock.Mock
}

func (m *MockConnectionState) Attempts() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConnectionState) LastMQTTConnection() string {
	args := m.Called()
	return args.String(0)
}

// MockMetricCollector is a mock implementation of metrics_collectors.MetricCollector
type MockMetricCollector struct {
	mock.Mock
}

func (m *MockMetricCollector) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockMetricCollector) Collect(ctx context.Context) *float64 {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*float64)
	}
	return nil
}

func (m *MockMetricCollector) Unit() string {
	args := m.Called()
	return args.String(0)
}
