// Package display provides the status surface the bootstrapper writes to.
//
// TextDisplay models a small monochrome OLED (SSD1306 class) driven in text
// mode: a fixed grid of character cells, written line by line and pushed to
// the panel with Show. Real panel drivers live outside this module; attach an
// io.Writer to mirror every shown frame to a terminal or log file.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	// DefaultColumns is the number of 6px wide glyphs on a 128px panel.
	DefaultColumns = 21

	// DefaultRows is the number of 8px high text rows on a 64px panel.
	DefaultRows = 8
)

// Display is a line oriented status surface.
type Display interface {
	Clear()
	Println(line string)
	Show() error
	PowerOff() error
}

// TextDisplay is an in-memory character framebuffer.
type TextDisplay struct {
	columns int
	rows    int
	out     io.Writer

	mu      sync.Mutex
	pending []string
	shown   []string
	off     bool
}

// NewTextDisplay creates a display of columns x rows cells. Non-positive
// sizes fall back to the 128x64 defaults. out may be nil.
func NewTextDisplay(columns, rows int, out io.Writer) *TextDisplay {
	if columns <= 0 {
		columns = DefaultColumns
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	return &TextDisplay{
		columns: columns,
		rows:    rows,
		out:     out,
	}
}

// Clear empties the pending frame and moves the cursor home.
func (d *TextDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = d.pending[:0]
}

// Println appends a line to the pending frame. Long lines wrap; anything
// past the last row is clipped.
func (d *TextDisplay) Println(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, wrapped := range wrap(line, d.columns) {
		if len(d.pending) >= d.rows {
			return
		}
		d.pending = append(d.pending, wrapped)
	}
}

// Show pushes the pending frame to the panel, powering it on if needed.
func (d *TextDisplay) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.off = false
	d.shown = append(d.shown[:0], d.pending...)

	if d.out == nil {
		return nil
	}
	if _, err := io.WriteString(d.out, d.render()); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	return nil
}

// PowerOff blanks the panel until the next Show.
func (d *TextDisplay) PowerOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.off = true
	d.shown = d.shown[:0]
	d.pending = d.pending[:0]
	return nil
}

// Frame returns a copy of the last shown frame.
func (d *TextDisplay) Frame() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	frame := make([]string, len(d.shown))
	copy(frame, d.shown)
	return frame
}

// IsOff reports whether the panel is powered off.
func (d *TextDisplay) IsOff() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.off
}

func (d *TextDisplay) render() string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", d.columns) + "+\n"

	b.WriteString(border)
	for i := 0; i < d.rows; i++ {
		line := ""
		if i < len(d.shown) {
			line = d.shown[i]
		}
		b.WriteString("|")
		b.WriteString(line)
		b.WriteString(strings.Repeat(" ", d.columns-len([]rune(line))))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}

func wrap(line string, columns int) []string {
	runes := []rune(line)
	if len(runes) <= columns {
		return []string{line}
	}

	var out []string
	for len(runes) > columns {
		out = append(out, string(runes[:columns]))
		runes = runes[columns:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
