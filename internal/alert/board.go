package alert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/kahiteam/hwmond/internal/events"
)

// NumDisks is the number of disk bays, and so of disk status LEDs.
const NumDisks = 5

// Indicator identifies one LED on the board.
type Indicator int

const (
	Warn Indicator = iota
	Fail
	Disk0
	Disk1
	Disk2
	Disk3
	Disk4

	NumIndicators = iota
)

var indicatorNames = [NumIndicators]string{
	"warn", "fail", "disk0", "disk1", "disk2", "disk3", "disk4",
}

func (i Indicator) String() string {
	if i >= 0 && int(i) < NumIndicators {
		return indicatorNames[i]
	}
	return "indicator(" + strconv.Itoa(int(i)) + ")"
}

// DiskIndicator returns the indicator of the disk LED at index led.
func DiskIndicator(led int) Indicator {
	return Disk0 + Indicator(led)
}

// Cells is the set of alert cells one monitor writes requests to.
type Cells struct {
	Warn  Cell
	Fail  Cell
	Disks [NumDisks]Cell
}

func (c *Cells) cell(i Indicator) *Cell {
	switch i {
	case Warn:
		return &c.Warn
	case Fail:
		return &c.Fail
	default:
		return &c.Disks[i-Disk0]
	}
}

// LED drives one indicator.
type LED interface {
	Set(on bool) error
	Close() error
}

// SysfsLED is an LED exposed under /sys/class/leds.
type SysfsLED struct {
	name string
	f    *os.File
}

// DefaultLEDNames are the N5550 front panel LEDs in indicator order.
var DefaultLEDNames = [NumIndicators]string{
	"n5550:orange:busy",
	"n5550:red:fail",
	"n5550:red:disk-stat-0",
	"n5550:red:disk-stat-1",
	"n5550:red:disk-stat-2",
	"n5550:red:disk-stat-3",
	"n5550:red:disk-stat-4",
}

// OpenSysfsLED opens dir/name/brightness for writing.
func OpenSysfsLED(dir, name string) (*SysfsLED, error) {
	path := filepath.Join(dir, name, "brightness")
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open LED %s: %w", name, err)
	}
	return &SysfsLED{name: name, f: f}, nil
}

// Set writes full or zero brightness.
func (l *SysfsLED) Set(on bool) error {
	v := "0"
	if on {
		v = "255"
	}
	n, err := l.f.WriteAt([]byte(v), 0)
	if err != nil {
		return fmt.Errorf("write LED %s: %w", l.name, err)
	}
	if n != len(v) {
		return fmt.Errorf("write LED %s: incomplete write (%d bytes)", l.name, n)
	}
	return nil
}

// Close closes the brightness file.
func (l *SysfsLED) Close() error {
	return l.f.Close()
}

// Observer is told when an indicator turns on or off.
type Observer interface {
	ObserveAlert(indicator string, active bool)
}

type indicator struct {
	led     LED
	name    string
	counter int
}

// Board aggregates the alert cells of every monitor. An indicator's LED is
// lit while at least one monitor has an acknowledged set request on it.
// Only the display loop acknowledges; the mutex covers Close and the
// read accessors.
type Board struct {
	mu       sync.Mutex
	ind      [NumIndicators]indicator
	bus      *events.Bus
	logger   *slog.Logger
	observer Observer
}

// BoardConfig locates the LEDs.
type BoardConfig struct {
	Dir   string                // usually /sys/class/leds
	Names [NumIndicators]string // LED names in indicator order
}

// OpenBoard opens every LED in cfg and turns it off.
func OpenBoard(cfg BoardConfig, bus *events.Bus, logger *slog.Logger) (*Board, error) {
	var leds [NumIndicators]LED
	for i, name := range cfg.Names {
		led, err := OpenSysfsLED(cfg.Dir, name)
		if err != nil {
			for _, l := range leds[:i] {
				l.Close()
			}
			return nil, err
		}
		leds[i] = led
	}
	return NewBoard(leds, cfg.Names, bus, logger)
}

// NewBoard creates a board over leds and turns them all off.
func NewBoard(leds [NumIndicators]LED, names [NumIndicators]string, bus *events.Bus, logger *slog.Logger) (*Board, error) {
	b := &Board{
		bus:    bus,
		logger: logger.With("component", "alert"),
	}
	for i, led := range leds {
		b.ind[i] = indicator{led: led, name: names[i]}
		if err := led.Set(false); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetObserver installs an observer for indicator changes.
func (b *Board) SetObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = o
}

// Acknowledge consumes the pending requests in c, which belongs to monitor.
// The caller holds the monitor's record lock. An error means an LED could
// not be written or the counters are inconsistent; both are fatal.
func (b *Board) Acknowledge(monitor string, c *Cells) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range NumIndicators {
		cell := c.cell(Indicator(i))
		ind := &b.ind[i]

		switch *cell {
		case SetReq:
			ind.counter++
			*cell = SetAck
			if ind.counter == 1 {
				if err := b.turn(Indicator(i), true, monitor); err != nil {
					return err
				}
			}
		case ClearReq:
			ind.counter--
			if ind.counter < 0 {
				return fmt.Errorf("alert: negative counter on %s", Indicator(i))
			}
			*cell = ClearAck
			if ind.counter == 0 {
				if err := b.turn(Indicator(i), false, monitor); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *Board) turn(i Indicator, on bool, monitor string) error {
	ind := &b.ind[i]
	if err := ind.led.Set(on); err != nil {
		return err
	}

	et := events.AlertCleared
	if on {
		et = events.AlertRaised
	}
	b.logger.Info("alert indicator changed",
		"indicator", i.String(), "active", on, "monitor", monitor)
	if b.observer != nil {
		b.observer.ObserveAlert(i.String(), on)
	}
	if b.bus != nil {
		b.bus.Publish(events.Event{
			Type: et,
			Data: map[string]string{
				"indicator": i.String(),
				"led":       ind.name,
				"monitor":   monitor,
			},
		})
	}
	return nil
}

// Active reports whether indicator i is lit.
func (b *Board) Active(i Indicator) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ind[i].counter > 0
}

// Counter returns how many monitors currently assert indicator i.
func (b *Board) Counter(i Indicator) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ind[i].counter
}

// Close turns every LED off and releases it.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var first error
	for i := range b.ind {
		ind := &b.ind[i]
		if ind.led == nil {
			continue
		}
		if err := ind.led.Set(false); err != nil && first == nil {
			first = err
		}
		if err := ind.led.Close(); err != nil && first == nil {
			first = err
		}
		ind.led = nil
	}
	return first
}
