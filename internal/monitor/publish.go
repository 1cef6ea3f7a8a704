package monitor

import "github.com/kahiteam/hwmond/internal/pwm"

// Status is the result of one monitor cycle.
type Status struct {
	Upper string // replaces the upper line when non-empty
	Lower string
	Warn  bool
	Fail  bool
	Disks []bool // per disk in table order; nil leaves the disk LEDs alone
	PWM   pwm.Flags
}

// Publish makes s visible to the display loop in one step. Alert cells
// only receive set/clear requests; the board decides what they mean.
// Disks, when given, must have one entry per configured disk.
func (r *Record) Publish(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Upper != "" {
		r.display.Upper = NewField(s.Upper)
	}
	r.display.Lower = NewField(s.Lower)

	r.alerts.Warn.Request(s.Warn)
	r.alerts.Fail.Request(s.Fail)
	r.pwmFlags = s.PWM

	if s.Disks != nil {
		for i, d := range r.disks {
			r.alerts.Disks[d.LED()].Request(s.Disks[i])
		}
	}
}

// Fail marks the monitor as failed: its fail alert is requested and its
// lower line shows DisabledMessage, whatever it held before.
func (r *Record) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts.Fail.Request(true)
	r.display.Lower = NewField(DisabledMessage)
	r.failed = true
}
