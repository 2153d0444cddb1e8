package button

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// readTimeout lets the reader notice Close between bytes.
const readTimeout = 200 * time.Millisecond

// Button reports hardware button presses without blocking.
type Button interface {
	// Poll reports whether the button was pressed since the previous call.
	Poll() bool
}

// NopButton is a button that is never pressed.
type NopButton struct{}

// Poll always reports false.
func (NopButton) Poll() bool { return false }

// SerialButton treats every byte arriving on a serial line as a press.
// Microcontroller shields commonly forward GPIO edges this way.
type SerialButton struct {
	port    io.ReadCloser
	pressed atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
	Logger  zerolog.Logger
}

// OpenSerialButton opens the named serial port and starts listening for presses.
func OpenSerialButton(name string, baud int, logger zerolog.Logger) (*SerialButton, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	logger.Info().Str("port", name).Int("baud", baud).Msg("Serial button listening")
	return NewSerialButton(port, logger), nil
}

// NewSerialButton starts listening for presses on an already opened port.
func NewSerialButton(port io.ReadCloser, logger zerolog.Logger) *SerialButton {
	b := &SerialButton{
		port:   port,
		done:   make(chan struct{}),
		Logger: logger,
	}
	go b.listen()
	return b
}

func (b *SerialButton) listen() {
	defer close(b.done)

	buf := make([]byte, 16)
	for {
		n, err := b.port.Read(buf)
		if n > 0 {
			b.pressed.Store(true)
		}
		if b.closed.Load() {
			return
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 {
				// read timeout with no data
				continue
			}
			b.Logger.Error().Err(err).Msg("Serial button read failed")
			return
		}
	}
}

// Poll reports and clears a pending press.
func (b *SerialButton) Poll() bool {
	return b.pressed.Swap(false)
}

// Close stops listening and closes the port.
func (b *SerialButton) Close() error {
	var err error
	b.once.Do(func() {
		b.closed.Store(true)
		err = b.port.Close()
		<-b.done
	})
	return err
}
