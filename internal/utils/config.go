package utils

import (
	"fmt"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/constants"
	"github.com/benmeehan/device-bootstrapper/pkg/file"
	"github.com/benmeehan/device-bootstrapper/pkg/mqtt"
)

// Config represents the structure of the configuration file.
type Config struct {
	Device struct {
		Name            string `yaml:"name"`             // Device name, also the default MQTT client ID
		FirmwareVersion string `yaml:"firmware_version"` // Semantic version reported in status messages
	} `yaml:"device"`

	MQTT struct {
		Host           string        `yaml:"host"`            // MQTT broker host
		Port           int           `yaml:"port"`            // MQTT broker port
		TLS            bool          `yaml:"tls"`             // Use ssl:// instead of tcp://
		CACertificate  string        `yaml:"ca_certificate"`  // Path to the CA certificate
		ClientID       string        `yaml:"client_id"`       // MQTT client ID, defaults to the device name
		Username       string        `yaml:"username"`        // MQTT username
		Password       string        `yaml:"password"`        // MQTT password
		CleanSession   *bool         `yaml:"clean_session"`   // Start every session clean (default true)
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Upper bound for a single connection attempt
		KeepAlive      time.Duration `yaml:"keep_alive"`      // MQTT keep alive interval

		Will struct {
			Topic    string `yaml:"topic"`   // Last will topic, empty disables the will
			Payload  string `yaml:"payload"` // Last will message
			QOS      *int   `yaml:"qos"`     // Last will QoS (default 1)
			Retained bool   `yaml:"retain"`  // Last will retain flag
		} `yaml:"will"`

		Subscriptions []Subscription `yaml:"subscriptions"` // Topics subscribed on every fresh session
	} `yaml:"mqtt"`

	Reconnect struct {
		MaxReconnect           int           `yaml:"max_reconnect"`            // Failed attempts before peripherals are powered off
		RetryDelay             time.Duration `yaml:"retry_delay"`              // Pause between failed attempts
		ConnectedDelay         time.Duration `yaml:"connected_delay"`          // Pause after a successful connection
		ConnectingMessageLimit int           `yaml:"connecting_message_limit"` // Stop printing "Connecting to" after this many attempts
		OverflowGuard          int           `yaml:"overflow_guard"`           // Attempt counter is reset once it exceeds this
	} `yaml:"reconnect"`

	Display struct {
		Enabled bool `yaml:"enabled"` // Render status text on the display
		Columns int  `yaml:"columns"` // Character columns
		Rows    int  `yaml:"rows"`    // Text rows
		Mirror  bool `yaml:"mirror"`  // Mirror frames to stdout
	} `yaml:"display"`

	Button struct {
		SerialPort string `yaml:"serial_port"` // Serial device forwarding button presses, empty disables
		BaudRate   int    `yaml:"baud_rate"`   // Serial baud rate
	} `yaml:"button"`

	Services struct {
		Status struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for status messages
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status service
			Interval time.Duration `yaml:"interval"` // Interval between status messages
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
		} `yaml:"status"`
	} `yaml:"services"`

	Logging struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output
	} `yaml:"logging"`

	// LoopInterval is the pause at the end of every main loop pass.
	LoopInterval time.Duration `yaml:"loop_interval"`
}

// Subscription is a topic the device subscribes to after connecting.
type Subscription struct {
	Topic string `yaml:"topic"`
	QOS   int    `yaml:"qos"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", filename, err)
	}

	ApplyDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(c *Config) {
	if c.Device.Name == "" {
		c.Device.Name = "device"
	}
	if c.Device.FirmwareVersion == "" {
		c.Device.FirmwareVersion = constants.DefaultFirmwareVersion
	}

	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = c.Device.Name
	}
	if c.MQTT.CleanSession == nil {
		clean := true
		c.MQTT.CleanSession = &clean
	}
	if c.MQTT.ConnectTimeout == 0 {
		c.MQTT.ConnectTimeout = constants.ConnectTimeout
	}
	if c.MQTT.Will.QOS == nil {
		qos := 1
		c.MQTT.Will.QOS = &qos
	}

	if c.Reconnect.MaxReconnect == 0 {
		c.Reconnect.MaxReconnect = constants.MaxReconnect
	}
	if c.Reconnect.RetryDelay == 0 {
		c.Reconnect.RetryDelay = constants.RetryDelay
	}
	if c.Reconnect.ConnectedDelay == 0 {
		c.Reconnect.ConnectedDelay = constants.Delay2000
	}
	if c.Reconnect.ConnectingMessageLimit == 0 {
		c.Reconnect.ConnectingMessageLimit = constants.ConnectingMessageLimit
	}
	if c.Reconnect.OverflowGuard == 0 {
		c.Reconnect.OverflowGuard = constants.AttemptsOverflowGuard
	}

	if c.Button.BaudRate == 0 {
		c.Button.BaudRate = 115200
	}

	if c.Services.Status.Interval == 0 {
		c.Services.Status.Interval = time.Minute
	}
	if c.Services.Status.Topic == "" {
		c.Services.Status.Topic = c.Device.Name + "/status"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.LoopInterval == 0 {
		c.LoopInterval = time.Second
	}
}

// Validate rejects configurations the bootstrapper cannot run with.
func (c *Config) Validate() error {
	if c.MQTT.Host == "" {
		return fmt.Errorf("mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("mqtt.port %d out of range", c.MQTT.Port)
	}
	if qos := *c.MQTT.Will.QOS; qos < 0 || qos > 2 {
		return fmt.Errorf("mqtt.will.qos %d out of range", qos)
	}
	for _, sub := range c.MQTT.Subscriptions {
		if sub.Topic == "" {
			return fmt.Errorf("mqtt.subscriptions: empty topic")
		}
		if sub.QOS < 0 || sub.QOS > 2 {
			return fmt.Errorf("mqtt.subscriptions: qos %d out of range for %s", sub.QOS, sub.Topic)
		}
	}
	if c.Reconnect.MaxReconnect < 0 {
		return fmt.Errorf("reconnect.max_reconnect must not be negative")
	}
	if c.Services.Status.QOS < 0 || c.Services.Status.QOS > 2 {
		return fmt.Errorf("services.status.qos %d out of range", c.Services.Status.QOS)
	}
	return nil
}

// BrokerConfig converts the MQTT section into the client settings.
func (c *Config) BrokerConfig() mqtt.BrokerConfig {
	return mqtt.BrokerConfig{
		Host:          c.MQTT.Host,
		Port:          c.MQTT.Port,
		TLS:           c.MQTT.TLS,
		CACertificate: c.MQTT.CACertificate,
		ClientID:      c.MQTT.ClientID,
		Username:      c.MQTT.Username,
		Password:      c.MQTT.Password,
		Will: mqtt.Will{
			Topic:    c.MQTT.Will.Topic,
			Payload:  c.MQTT.Will.Payload,
			QoS:      byte(*c.MQTT.Will.QOS),
			Retained: c.MQTT.Will.Retained,
		},
		CleanSession:   *c.MQTT.CleanSession,
		ConnectTimeout: c.MQTT.ConnectTimeout,
		KeepAlive:      c.MQTT.KeepAlive,
	}
}
