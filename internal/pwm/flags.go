// Package pwm turns the fan requests of temperature monitors into a system
// fan speed.
package pwm

import "strings"

// Flags is the fan request bitmask a monitor publishes.
type Flags uint8

const (
	FanMaxOn    Flags = 1 << iota // at or above the maximum-speed threshold
	FanMaxHyst                    // within the maximum-speed hysteresis band
	FanHighOn                     // at or above the high-speed threshold
	FanHighHyst                   // within the high-speed hysteresis band
)

// TempFlags returns the fan request for temperature t. Thresholds share the
// unit of t.
func TempFlags(t, maxOn, maxHyst, highOn, highHyst int) Flags {
	var f Flags
	if t >= maxOn {
		f |= FanMaxOn
	}
	if t >= maxHyst {
		f |= FanMaxHyst
	}
	if t >= highOn {
		f |= FanHighOn
	}
	if t >= highHyst {
		f |= FanHighHyst
	}
	return f
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		bit  Flags
		name string
	}{
		{FanMaxOn, "max_on"},
		{FanMaxHyst, "max_hyst"},
		{FanHighOn, "high_on"},
		{FanHighHyst, "high_hyst"},
	} {
		if f&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}
