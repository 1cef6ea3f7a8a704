// Package monitor holds the shared state every monitor goroutine publishes
// to, and the runtime those goroutines gather data with.
package monitor

import (
	"sync"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/pwm"
)

// FieldWidth is the width of one panel line.
const FieldWidth = 20

// DisabledMessage replaces the lower line of a monitor that gave up.
const DisabledMessage = "ERROR: NOT AVAILABLE"

// Field is one space-padded panel line.
type Field [FieldWidth]byte

// NewField returns s padded with spaces, or truncated, to FieldWidth.
func NewField(s string) Field {
	var f Field
	n := copy(f[:], s)
	for i := n; i < FieldWidth; i++ {
		f[i] = ' '
	}
	return f
}

func (f Field) String() string { return string(f[:]) }

// Display is the two-line text a monitor shows on the panel.
type Display struct {
	Upper Field
	Lower Field
}

// Record is the state one monitor shares with the display loop. The
// monitor goroutine writes it only through Publish and Fail; the display
// loop reads it through Visit or Snapshot.
type Record struct {
	name    string
	enabled bool
	disks   DiskTable

	mu       sync.Mutex
	display  Display
	alerts   alert.Cells
	pwmFlags pwm.Flags
	failed   bool
}

// RecordOption configures a Record.
type RecordOption func(*Record)

// WithTitle sets the initial upper line.
func WithTitle(title string) RecordOption {
	return func(r *Record) { r.display.Upper = NewField(title) }
}

// WithEnabled sets whether the monitor runs at all.
func WithEnabled(enabled bool) RecordOption {
	return func(r *Record) { r.enabled = enabled }
}

// WithPWM sets the fan request in effect before the first publish.
func WithPWM(flags pwm.Flags) RecordOption {
	return func(r *Record) { r.pwmFlags = flags }
}

// NewRecord creates the record of monitor name. Per-disk results passed to
// Publish are mapped to LEDs through disks.
func NewRecord(name string, disks DiskTable, opts ...RecordOption) *Record {
	r := &Record{
		name:    name,
		enabled: true,
		disks:   disks,
		display: Display{Upper: NewField(""), Lower: NewField("")},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the monitor name.
func (r *Record) Name() string { return r.name }

// Enabled reports whether the monitor was enabled by configuration.
func (r *Record) Enabled() bool { return r.enabled }

// Disks returns the disk table the record maps per-disk results through.
func (r *Record) Disks() DiskTable { return r.disks }

// Visit calls fn with the record's fields under the record lock. The
// display loop uses it to copy the text, acknowledge alert requests and
// collect the fan request in one consistent step. fn must not block.
func (r *Record) Visit(fn func(d *Display, cells *alert.Cells, flags pwm.Flags) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.display, &r.alerts, r.pwmFlags)
}

// Snapshot is a point-in-time copy of a record.
type Snapshot struct {
	Name    string
	Display Display
	Alerts  alert.Cells
	PWM     pwm.Flags
	Failed  bool
}

// Snapshot returns a consistent copy of the record.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Name:    r.name,
		Display: r.display,
		Alerts:  r.alerts,
		PWM:     r.pwmFlags,
		Failed:  r.failed,
	}
}
