package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kahiteam/hwmond/internal/config"
)

// Rig is a sandboxed machine: LED brightness files, a pwm file, a panel
// file and the kernel files the loadavg and cputemp monitors read, all
// under one temporary directory.
type Rig struct {
	Dir     string
	LEDDir  string
	PWM     string
	Panel   string
	Pidfile string
	LoadAvg string
	Temps   []string
}

// NewRig creates the sandbox with an idle machine: low load and cool
// cores.
func NewRig(t *testing.T) *Rig {
	t.Helper()
	dir := TempDir(t)
	r := &Rig{
		Dir:     dir,
		LEDDir:  filepath.Join(dir, "leds"),
		Panel:   filepath.Join(dir, "panel"),
		Pidfile: filepath.Join(dir, "hwmond.pid"),
	}
	for _, name := range config.DefaultLEDNames {
		WriteFile(t, r.LEDDir, filepath.Join(name, "brightness"), "0")
	}
	r.PWM = WriteFile(t, dir, "pwm3", "170")
	r.LoadAvg = WriteFile(t, dir, "loadavg", "0.10 0.20 0.30 1/100 4242\n")
	r.Temps = []string{
		WriteFile(t, dir, "temp2_input", "30000\n"),
		WriteFile(t, dir, "temp3_input", "31000\n"),
	}
	return r
}

// Config returns a daemon configuration pointed at the rig. Only the
// loadavg and cputemp monitors are enabled.
func (r *Rig) Config() *config.Config {
	off := false
	cfg := config.Default()
	cfg.Daemon.Pidfile = r.Pidfile
	cfg.Daemon.PanelDevice = r.Panel
	cfg.Daemon.DisplayInterval = 1
	cfg.Daemon.ShutdownTimeout = 5
	cfg.Alerts.LEDDir = r.LEDDir
	cfg.PWM.File = r.PWM
	cfg.Monitors.LoadAvg.Path = r.LoadAvg
	cfg.Monitors.LoadAvg.Interval = 1
	cfg.Monitors.CPUTemp.Inputs = r.Temps
	cfg.Monitors.CPUTemp.Interval = 1
	cfg.Monitors.HDDTemp.Enabled = &off
	cfg.Monitors.Smart.Enabled = &off
	cfg.Monitors.RAID.Enabled = &off
	return cfg
}

// LEDOn reports whether the named LED was last set to full brightness.
// Brightness is written at offset 0 without truncation, as on sysfs, so
// turning an LED off leaves "055" in the sandbox file.
func (r *Rig) LEDOn(name string) bool {
	return strings.HasPrefix(ReadTrimmed(filepath.Join(r.LEDDir, name, "brightness")), "255")
}

// TOML returns the rig configuration as a config file for the hwmond
// binary. The daemon serves HTTP on listen when it is set. hddtemp runs
// the given command, or is disabled when command is empty.
func (r *Rig) TOML(listen, hddtemp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[daemon]\nlog_level = \"debug\"\npidfile = %q\npanel_device = %q\n", r.Pidfile, r.Panel)
	b.WriteString("display_interval = 1\nshutdown_timeout = 5\n")
	if listen != "" {
		fmt.Fprintf(&b, "metrics_listen = %q\n", listen)
	}
	fmt.Fprintf(&b, "\n[alerts]\nled_dir = %q\n", r.LEDDir)
	fmt.Fprintf(&b, "\n[pwm]\nfile = %q\n", r.PWM)
	fmt.Fprintf(&b, "\n[monitors.loadavg]\ninterval = 1\npath = %q\n", r.LoadAvg)
	fmt.Fprintf(&b, "\n[monitors.cputemp]\ninterval = 1\ninputs = [%q, %q]\n", r.Temps[0], r.Temps[1])
	if hddtemp == "" {
		b.WriteString("\n[monitors.hddtemp]\nenabled = false\n")
	} else {
		fmt.Fprintf(&b, "\n[monitors.hddtemp]\ninterval = 1\ncommand = %q\n", hddtemp)
	}
	b.WriteString("\n[monitors.smart]\nenabled = false\n")
	b.WriteString("\n[monitors.raid]\nenabled = false\n")
	return b.String()
}
