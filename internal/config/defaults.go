package config

import "fmt"

// DefaultDisks are the RAID members of a stock N5550, ports 2 through 6.
var DefaultDisks = []string{"/dev/sdb", "/dev/sdc", "/dev/sdd", "/dev/sde", "/dev/sdf"}

// DefaultLEDNames are the front panel LEDs in indicator order: busy (warn),
// fail, then the five disk status LEDs.
var DefaultLEDNames = []string{
	"n5550:orange:busy",
	"n5550:red:fail",
	"n5550:red:disk-stat-0",
	"n5550:red:disk-stat-1",
	"n5550:red:disk-stat-2",
	"n5550:red:disk-stat-3",
	"n5550:red:disk-stat-4",
}

// DefaultCPUTempInputs are the hwmon inputs of the two Atom D2550 cores.
var DefaultCPUTempInputs = []string{
	"/sys/devices/platform/coretemp.0/hwmon/hwmon1/temp2_input",
	"/sys/devices/platform/coretemp.0/hwmon/hwmon1/temp3_input",
}

// ApplyDefaults fills in zero-value fields with their default values.
func ApplyDefaults(cfg *Config) {
	// Daemon defaults.
	if cfg.Daemon.LogLevel == "" {
		cfg.Daemon.LogLevel = "info"
	}
	if cfg.Daemon.LogFormat == "" {
		cfg.Daemon.LogFormat = "json"
	}
	if cfg.Daemon.Pidfile == "" {
		cfg.Daemon.Pidfile = "/run/hwmond.pid"
	}
	if cfg.Daemon.DisplayInterval == 0 {
		cfg.Daemon.DisplayInterval = 3
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30
	}

	// Alert defaults.
	if cfg.Alerts.LEDDir == "" {
		cfg.Alerts.LEDDir = "/sys/class/leds"
	}
	if len(cfg.Alerts.LEDs) == 0 {
		cfg.Alerts.LEDs = append([]string(nil), DefaultLEDNames...)
	}

	// PWM defaults.
	if cfg.PWM.File == "" {
		cfg.PWM.File = "/sys/devices/platform/it87.656/pwm3"
	}
	if cfg.PWM.Normal == 0 {
		cfg.PWM.Normal = 170
	}
	if cfg.PWM.High == 0 {
		cfg.PWM.High = 215
	}
	if cfg.PWM.Maximum == 0 {
		cfg.PWM.Maximum = 255
	}

	// Monitor defaults.
	la := &cfg.Monitors.LoadAvg
	if la.Interval == 0 {
		la.Interval = 30
	}
	if la.Path == "" {
		la.Path = "/proc/loadavg"
	}
	if len(la.Warn) == 0 {
		la.Warn = []float64{12, 12, 12}
	}
	if len(la.Crit) == 0 {
		la.Crit = []float64{16, 16, 16}
	}

	ct := &cfg.Monitors.CPUTemp
	if ct.Interval == 0 {
		ct.Interval = 30
	}
	if len(ct.Inputs) == 0 {
		ct.Inputs = append([]string(nil), DefaultCPUTempInputs...)
	}
	if ct.Warn == 0 {
		ct.Warn = 47
	}
	if ct.Crit == 0 {
		ct.Crit = 52
	}
	if ct.FanMaxOn == 0 {
		ct.FanMaxOn = 42
	}
	if ct.FanMaxHyst == 0 {
		ct.FanMaxHyst = 39
	}
	if ct.FanHighOn == 0 {
		ct.FanHighOn = 40
	}
	if ct.FanHighHyst == 0 {
		ct.FanHighHyst = 37
	}

	ht := &cfg.Monitors.HDDTemp
	if ht.Interval == 0 {
		ht.Interval = 30
	}
	if ht.Command == "" {
		ht.Command = "/usr/sbin/hddtemp"
	}
	if ht.Timeout == 0 {
		ht.Timeout = 5
	}
	if ht.MaxOutput == 0 {
		ht.MaxOutput = 1000
	}
	if ht.Warn == 0 {
		ht.Warn = 45
	}
	if ht.Crit == 0 {
		ht.Crit = 50
	}

	sm := &cfg.Monitors.Smart
	if sm.Interval == 0 {
		sm.Interval = 1800
	}
	if sm.Command == "" {
		sm.Command = "/usr/sbin/smartctl"
	}
	if sm.Timeout == 0 {
		sm.Timeout = 2
	}

	rd := &cfg.Monitors.RAID
	if rd.Interval == 0 {
		rd.Interval = 30
	}
	if rd.Mdstat == "" {
		rd.Mdstat = "/proc/mdstat"
	}
	if rd.MdadmConf == "" {
		rd.MdadmConf = "/etc/mdadm.conf"
	}
	if rd.SysfsDir == "" {
		rd.SysfsDir = "/sys/devices/virtual/block"
	}
	if rd.Command == "" {
		rd.Command = "/sbin/mdadm"
	}
	if rd.Timeout == 0 {
		rd.Timeout = 2
	}

	// Disk defaults.
	if len(cfg.Disks) == 0 {
		for _, dev := range DefaultDisks {
			cfg.Disks = append(cfg.Disks, DiskConfig{Device: dev})
		}
	}
	for i := range cfg.Disks {
		d := &cfg.Disks[i]
		if d.Port == 0 {
			d.Port = i + 2
		}
		if d.TempWarn == 0 {
			d.TempWarn = ht.Warn
		}
		if d.TempCrit == 0 {
			d.TempCrit = ht.Crit
		}
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ListenAddr is a helper for log messages about the metrics listener.
func (d DaemonConfig) ListenAddr() string {
	if d.MetricsListen == "" {
		return "disabled"
	}
	return fmt.Sprintf("http://%s/metrics", d.MetricsListen)
}
