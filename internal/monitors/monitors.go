// Package monitors implements the hardware checks hwmond runs: load
// average, CPU core temperature, disk temperature, S.M.A.R.T. health and
// RAID array status.
package monitors

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/pwm"
	"github.com/kahiteam/hwmond/internal/timedio"
)

// Monitor is one health check. Check gathers data once and publishes it to
// the task's record; the daemon calls it every Interval on a goroutine of
// its own.
type Monitor interface {
	Name() string
	Title() string
	Interval() time.Duration
	Check(t *monitor.Task) error
}

// fanRequester is implemented by monitors whose fan request is in effect
// before their first check.
type fanRequester interface {
	InitialPWM() pwm.Flags
}

// Names lists every monitor in panel order.
var Names = []string{"loadavg", "cputemp", "smart", "hddtemp", "raid"}

// New builds the named monitor from cfg, whether or not cfg enables it.
func New(name string, cfg *config.Config) (Monitor, error) {
	m := &cfg.Monitors
	switch name {
	case "loadavg":
		return NewLoadAvg(m.LoadAvg), nil
	case "cputemp":
		return NewCPUTemp(m.CPUTemp), nil
	case "hddtemp":
		return NewHDDTemp(m.HDDTemp), nil
	case "smart":
		return NewSmart(m.Smart), nil
	case "raid":
		return NewRAID(m.RAID), nil
	default:
		return nil, fmt.Errorf("unknown monitor %q", name)
	}
}

// Enabled builds every monitor cfg enables, in panel order.
func Enabled(cfg *config.Config) []Monitor {
	enabled := map[string]*bool{
		"loadavg": cfg.Monitors.LoadAvg.Enabled,
		"cputemp": cfg.Monitors.CPUTemp.Enabled,
		"hddtemp": cfg.Monitors.HDDTemp.Enabled,
		"smart":   cfg.Monitors.Smart.Enabled,
		"raid":    cfg.Monitors.RAID.Enabled,
	}

	var out []Monitor
	for _, name := range Names {
		if !config.IsEnabled(enabled[name], true) {
			continue
		}
		m, err := New(name, cfg)
		if err != nil {
			panic(err) // Names and New disagree
		}
		out = append(out, m)
	}
	return out
}

// NewRecord creates the record m publishes to.
func NewRecord(m Monitor, disks monitor.DiskTable) *monitor.Record {
	opts := []monitor.RecordOption{monitor.WithTitle(m.Title())}
	if f, ok := m.(fanRequester); ok {
		opts = append(opts, monitor.WithPWM(f.InitialPWM()))
	}
	return monitor.NewRecord(m.Name(), disks, opts...)
}

// Run checks m every interval, publishing to r, until the daemon shuts
// down or the monitor is disabled.
func Run(env *monitor.Env, m Monitor, r *monitor.Record) {
	defer closeMonitor(env, m)
	t := env.NewTask(r)
	t.Run(m.Interval(), m.Check)
}

// CheckOnce runs a single check of m and returns the resulting record.
// The error is the check's own; the record is marked failed when the
// check would have disabled the monitor.
func CheckOnce(env *monitor.Env, m Monitor) (monitor.Snapshot, error) {
	r := NewRecord(m, env.Disks)
	defer closeMonitor(env, m)
	t := env.NewTask(r)
	defer t.Close()

	err := m.Check(t)
	if err != nil && !isTransient(err) {
		r.Fail()
	}
	return r.Snapshot(), err
}

// closeMonitor releases whatever m keeps open between checks.
func closeMonitor(env *monitor.Env, m Monitor) {
	c, ok := m.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		env.Logger.Error("close failed", "monitor", m.Name(), "op", "close", "error", err)
	}
}

func isTransient(err error) bool {
	return errors.Is(err, timedio.ErrTimeout) || errors.Is(err, timedio.ErrCancelled)
}

// field returns an all-blank panel line to place per-disk columns in.
func field() []byte {
	b := make([]byte, monitor.FieldWidth)
	for i := range b {
		b[i] = ' '
	}
	return b
}

// diskColumn returns the slice of line where disk d's result goes.
func diskColumn(line []byte, d monitor.Disk) []byte {
	return line[4*d.LED():]
}
