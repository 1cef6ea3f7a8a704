// Package panel renders monitor pages on the front panel display.
package panel

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kahiteam/hwmond/internal/monitor"
)

// Page is one screen of the panel.
type Page struct {
	Monitor string
	Display monitor.Display
}

// Frame returns the bytes written to a panel device for p: the two lines,
// each newline terminated.
func (p Page) Frame() []byte {
	b := make([]byte, 0, 2*monitor.FieldWidth+2)
	b = append(b, p.Display.Upper[:]...)
	b = append(b, '\n')
	b = append(b, p.Display.Lower[:]...)
	return append(b, '\n')
}

// Renderer shows pages.
type Renderer interface {
	Render(p Page) error
	Close() error
}

// Open returns the renderer for device. An empty device logs each page at
// debug level instead.
func Open(device string, logger *slog.Logger) (Renderer, error) {
	if device == "" {
		return &LogRenderer{logger: logger.With("component", "panel")}, nil
	}
	return OpenDevice(device)
}

// DeviceRenderer writes frames to a character device or a plain file. A
// plain file holds only the latest frame.
type DeviceRenderer struct {
	path    string
	f       *os.File
	regular bool
}

// OpenDevice opens path for writing, creating it if it is missing.
func OpenDevice(path string) (*DeviceRenderer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open panel: %w", err)
	}
	return &DeviceRenderer{path: path, f: f, regular: fi.Mode().IsRegular()}, nil
}

// Render writes one frame.
func (d *DeviceRenderer) Render(p Page) error {
	frame := p.Frame()

	var n int
	var err error
	if d.regular {
		if err = d.f.Truncate(0); err == nil {
			n, err = d.f.WriteAt(frame, 0)
		}
	} else {
		n, err = d.f.Write(frame)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if n != len(frame) {
		return fmt.Errorf("write %s: incomplete write (%d bytes)", d.path, n)
	}
	return nil
}

// Close closes the device.
func (d *DeviceRenderer) Close() error {
	return d.f.Close()
}

// LogRenderer logs pages. It is used when no panel device is configured.
type LogRenderer struct {
	logger *slog.Logger
}

// Render logs p at debug level.
func (l *LogRenderer) Render(p Page) error {
	l.logger.Debug("panel",
		"page", p.Monitor,
		"upper", strings.TrimRight(p.Display.Upper.String(), " "),
		"lower", strings.TrimRight(p.Display.Lower.String(), " "),
	)
	return nil
}

// Close is a no-op.
func (l *LogRenderer) Close() error { return nil }
