package models

import "time"

// DeviceStatus is the periodic status message published by the device.
type DeviceStatus struct {
	DeviceName         string    `json:"device_name"`
	SessionID          string    `json:"session_id"`
	FirmwareVersion    string    `json:"firmware_version"`
	Timestamp          time.Time `json:"timestamp"`
	Status             string    `json:"status"`
	MemoryUsedPercent  *float64  `json:"memory_used_percent,omitempty"`
	ReconnectAttempts  int       `json:"reconnect_attempts"`
	LastMQTTConnection string    `json:"last_mqtt_connection,omitempty"`
}
