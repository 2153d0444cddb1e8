package mocks

import "github.com/stretchr/testify/mock"

// MockDisplay is a mock implementation of the display.Display interface
type MockDisplay struct {
	mock.Mock
}

func (m *MockDisplay) Clear() {
	m.Called()
}

func (m *MockDisplay) Println(line string) {
	m.Called(line)
}

func (m *MockDisplay) Show() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDisplay) PowerOff() error {
	args := m.Called()
	return args.Error(0)
}
