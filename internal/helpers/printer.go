package helpers

import (
	"sync"

	"github.com/benmeehan/device-bootstrapper/pkg/display"
	"github.com/rs/zerolog"
)

// Printer writes status lines to the log and, when enabled, to the display.
type Printer struct {
	display display.Display
	enabled bool
	Logger  zerolog.Logger

	mu  sync.Mutex
	off bool
}

// NewPrinter creates a Printer. A nil display disables display output.
func NewPrinter(d display.Display, enabled bool, logger zerolog.Logger) *Printer {
	return &Printer{
		display: d,
		enabled: enabled && d != nil,
		Logger:  logger,
	}
}

// Enabled reports whether lines reach the display.
func (p *Printer) Enabled() bool {
	return p.enabled
}

// Clear resets the display surface.
func (p *Printer) Clear() {
	if p.active() {
		p.display.Clear()
	}
}

// active reports whether display calls go through. A powered off panel
// stays dark until PowerOn.
func (p *Printer) active() bool {
	if !p.enabled {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.off
}

// Println logs line and queues it on the display.
func (p *Printer) Println(line string) {
	p.Logger.Debug().Str("line", line).Msg("status")
	if p.active() {
		p.display.Println(line)
	}
}

// Show pushes queued lines to the display.
func (p *Printer) Show() {
	if !p.active() {
		return
	}
	if err := p.display.Show(); err != nil {
		p.Logger.Warn().Err(err).Msg("Failed to refresh display")
	}
}

// PowerOff turns the display off. Lines are still logged, but the panel
// ignores Clear, Println and Show until PowerOn.
func (p *Printer) PowerOff() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	p.off = true
	p.mu.Unlock()
	if err := p.display.PowerOff(); err != nil {
		p.Logger.Warn().Err(err).Msg("Failed to power off display")
	}
}

// PowerOn lets the next Show light the panel again.
func (p *Printer) PowerOn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.off = false
}

// PoweredOff reports whether the panel was powered off and not yet back on.
func (p *Printer) PoweredOff() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.off
}
