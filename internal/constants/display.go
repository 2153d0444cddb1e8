package constants

// Status lines rendered on the display.
const (
	MsgSetup        = "setup"
	MsgConnectingTo = "Connecting to"
	MsgMQTTBroker   = "MQTT Broker..."
	MsgConnected    = "CONNECTED"
	MsgReadingData  = "Reading data from"
	MsgTheNetwork   = "the network..."
	MsgAttempts     = "MQTT attempts="
	MsgMaxRetry     = "Max retry reached, powering off peripherals."
)
