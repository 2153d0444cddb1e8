package mocks

import "sync/atomic"

// BrokerMessage is a paho Message delivered by a fake broker.
type BrokerMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
	acked    atomic.Bool
}

// NewMockMessage returns a QoS 0, non-retained message on topic.
func NewMockMessage(topic string, payload []byte) *BrokerMessage {
	return &BrokerMessage{topic: topic, payload: payload}
}

// WithQoS sets the delivery QoS and the retain flag.
func (m *BrokerMessage) WithQoS(qos byte, retained bool) *BrokerMessage {
	m.qos = qos
	m.retained = retained
	return m
}

// Acked reports whether the handler acknowledged the message.
func (m *BrokerMessage) Acked() bool { return m.acked.Load() }

func (m *BrokerMessage) Topic() string     { return m.topic }
func (m *BrokerMessage) Payload() []byte   { return m.payload }
func (m *BrokerMessage) Qos() byte         { return m.qos }
func (m *BrokerMessage) Retained() bool    { return m.retained }
func (m *BrokerMessage) Duplicate() bool   { return false }
func (m *BrokerMessage) MessageID() uint16 { return 0 }
func (m *BrokerMessage) Ack()              { m.acked.Store(true) }
