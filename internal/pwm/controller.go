package pwm

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/kahiteam/hwmond/internal/events"
)

// State is a fan speed setting.
type State int

const (
	Normal State = iota
	High
	Maximum
)

var stateNames = [...]string{"NORMAL", "HIGH", "MAXIMUM"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("UNKNOWN(%d)", s)
}

// Values are the duty cycles (0-255) written for each state.
type Values [3]int

// DefaultValues are the N5550 system fan settings.
var DefaultValues = Values{Normal: 170, High: 215, Maximum: 255}

// Writer sets the fan duty cycle.
type Writer interface {
	WritePWM(value int) error
}

// FileWriter writes the duty cycle to a hwmon pwm file.
type FileWriter struct {
	path string
	f    *os.File
}

// OpenFile opens the pwm file at path for writing.
func OpenFile(path string) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pwm: %w", err)
	}
	return &FileWriter{path: path, f: f}, nil
}

// WritePWM writes value as decimal text.
func (w *FileWriter) WritePWM(value int) error {
	s := strconv.Itoa(value)
	n, err := w.f.WriteAt([]byte(s), 0)
	if err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if n != len(s) {
		return fmt.Errorf("write %s: incomplete write (%d bytes)", w.path, n)
	}
	return nil
}

// Close closes the pwm file.
func (w *FileWriter) Close() error {
	return w.f.Close()
}

// Observer is told the fan state after every change.
type Observer interface {
	ObserveFanState(state int)
}

// Controller combines the fan requests of every monitor. The fan starts at
// Normal; the pwm file is written only when the state changes.
type Controller struct {
	mu       sync.Mutex
	w        Writer
	values   Values
	state    State
	flags    map[string]Flags
	bus      *events.Bus
	logger   *slog.Logger
	observer Observer
}

// NewController creates a controller writing through w.
func NewController(w Writer, values Values, bus *events.Bus, logger *slog.Logger) *Controller {
	return &Controller{
		w:      w,
		values: values,
		flags:  make(map[string]Flags),
		bus:    bus,
		logger: logger.With("component", "pwm"),
	}
}

// SetObserver installs an observer for state changes.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
	o.ObserveFanState(int(c.state))
}

// Update records the latest flags of monitor and, if they changed,
// re-evaluates the fan state.
func (c *Controller) Update(monitor string, flags Flags) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.flags[monitor]; ok && old == flags {
		return nil
	}
	c.flags[monitor] = flags

	var all Flags
	for _, f := range c.flags {
		all |= f
	}
	return c.set(c.next(all))
}

func (c *Controller) next(all Flags) State {
	switch {
	case all&FanMaxOn != 0:
		return Maximum
	case all&FanMaxHyst != 0 && c.state == Maximum:
		return Maximum
	case all&FanHighOn != 0:
		return High
	case all&FanHighHyst != 0 && c.state >= High:
		return High
	default:
		return Normal
	}
}

func (c *Controller) set(s State) error {
	if s == c.state {
		return nil
	}

	c.logger.Info("changing fan speed", "from", c.state.String(), "to", s.String())
	if err := c.w.WritePWM(c.values[s]); err != nil {
		return err
	}
	old := c.state
	c.state = s

	if c.observer != nil {
		c.observer.ObserveFanState(int(s))
	}
	if c.bus != nil {
		c.bus.Publish(events.Event{
			Type: events.FanSpeedChanged,
			Data: map[string]string{
				"from":  old.String(),
				"to":    s.String(),
				"value": strconv.Itoa(c.values[s]),
			},
		})
	}
	return nil
}

// State returns the current fan state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
