package monitor

import "fmt"

// MaxDisks bounds the disk table.
const MaxDisks = 5

// Disk is one configured RAID member.
type Disk struct {
	Device string // e.g. /dev/sda
	Letter byte   // device suffix, e.g. 'a'
	Port   int    // SATA port, 2-6

	TempWarn    int  // hddtemp warning threshold, °C
	TempCrit    int  // hddtemp critical threshold, °C
	TempIgnore  bool // skip in the hddtemp monitor
	SmartIgnore bool // skip in the SMART monitor
}

// LED returns the index of the disk's status LED.
func (d Disk) LED() int {
	return d.Port - 2
}

// DiskTable is the configured disk set. It is read-only once monitors start.
type DiskTable []Disk

// IndexOf returns the position of the disk whose device suffix is letter.
func (t DiskTable) IndexOf(letter byte) (int, bool) {
	for i := range t {
		if t[i].Letter == letter {
			return i, true
		}
	}
	return -1, false
}

// Validate checks the table invariants: 1 to MaxDisks entries, unique
// letters, unique ports in 2-6.
func (t DiskTable) Validate() error {
	if len(t) == 0 || len(t) > MaxDisks {
		return fmt.Errorf("disk count %d out of range (1-%d)", len(t), MaxDisks)
	}
	var letters, ports [256]bool
	for _, d := range t {
		if d.Letter < 'a' || d.Letter > 'z' {
			return fmt.Errorf("disk %s: invalid device letter %q", d.Device, d.Letter)
		}
		if letters[d.Letter] {
			return fmt.Errorf("disk %s: duplicate device letter %q", d.Device, d.Letter)
		}
		letters[d.Letter] = true
		if d.Port < 2 || d.Port > 6 {
			return fmt.Errorf("disk %s: port %d out of range (2-6)", d.Device, d.Port)
		}
		if ports[d.Port] {
			return fmt.Errorf("disk %s: duplicate port %d", d.Device, d.Port)
		}
		ports[d.Port] = true
	}
	return nil
}
