package constants

import "time"

const (
	// MaxReconnect is the number of failed attempts after which peripherals are powered off.
	MaxReconnect = 10

	// RetryDelay is the pause between two failed connection attempts.
	RetryDelay = 500 * time.Millisecond

	// Delay2000 is the pause after a successful (re)connection.
	Delay2000 = 2000 * time.Millisecond

	// ConnectingMessageLimit stops the "Connecting to" text after this many attempts.
	ConnectingMessageLimit = 20

	// AttemptsOverflowGuard resets the attempt counter once exceeded.
	AttemptsOverflowGuard = 100000

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout = 10 * time.Second

	// ConnectWaitMargin is added to ConnectTimeout when waiting on a connect
	// token, so the wait never gives up before the client's own deadline.
	ConnectWaitMargin = time.Second
)

// OffCmd is the sentinel stored in the last connection flag after a reconnect.
const OffCmd = "OFF"
