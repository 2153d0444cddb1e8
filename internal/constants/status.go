package constants

const (
	// StatusOnline is reported by the status service while the device runs.
	StatusOnline = "online"

	// DefaultFirmwareVersion is used when the configuration carries none.
	DefaultFirmwareVersion = "0.0.0"
)
