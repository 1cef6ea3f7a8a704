package config

import (
	"fmt"
	"strings"

	"github.com/kahiteam/hwmond/internal/events"
	"github.com/kahiteam/hwmond/internal/monitor"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "text": true,
}

var validTemplates = map[string]bool{
	"": true, "generic": true, "slack": true, "pagerduty": true,
}

// Validate checks the config for semantic errors and returns all of them.
func Validate(cfg *Config) []error {
	var errs []error

	d := cfg.Daemon
	if !validLogLevels[strings.ToLower(d.LogLevel)] {
		errs = append(errs, fmt.Errorf("daemon.log_level: invalid level %q", d.LogLevel))
	}
	if !validLogFormats[strings.ToLower(d.LogFormat)] {
		errs = append(errs, fmt.Errorf("daemon.log_format: must be json or text, got %q", d.LogFormat))
	}
	if d.DisplayInterval < 1 {
		errs = append(errs, fmt.Errorf("daemon.display_interval: must be >= 1, got %d", d.DisplayInterval))
	}

	errs = append(errs, validateDisks(cfg.Disks)...)

	if len(cfg.Alerts.LEDs) != len(DefaultLEDNames) {
		errs = append(errs, fmt.Errorf("alerts.leds: need %d LED names, got %d", len(DefaultLEDNames), len(cfg.Alerts.LEDs)))
	}

	p := cfg.PWM
	for _, v := range []struct {
		name  string
		value int
	}{{"normal", p.Normal}, {"high", p.High}, {"maximum", p.Maximum}} {
		if v.value < 0 || v.value > 255 {
			errs = append(errs, fmt.Errorf("pwm.%s: must be between 0 and 255, got %d", v.name, v.value))
		}
	}

	errs = append(errs, validateMonitors(&cfg.Monitors)...)

	for name, w := range cfg.Webhooks {
		prefix := fmt.Sprintf("webhooks.%s", name)
		if err := events.ValidateWebhookURL(w.URL, w.AllowInsecure); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
		if !validTemplates[w.Template] {
			errs = append(errs, fmt.Errorf("%s: unknown template %q", prefix, w.Template))
		}
		if w.Template == "pagerduty" && w.RoutingKey == "" {
			errs = append(errs, fmt.Errorf("%s: routing_key is required for pagerduty", prefix))
		}
		for _, e := range w.Events {
			if _, ok := events.ParseEventType(e); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown event %q", prefix, e))
			}
		}
	}

	return errs
}

func validateDisks(disks []DiskConfig) []error {
	var errs []error
	for i, d := range disks {
		prefix := fmt.Sprintf("disks[%d]", i)
		if _, ok := diskLetter(d.Device); !ok {
			errs = append(errs, fmt.Errorf("%s: invalid device %q (want /dev/sd[a-z])", prefix, d.Device))
		}
		if d.TempCrit <= d.TempWarn {
			errs = append(errs, fmt.Errorf("%s: temp_crit (%d) must be above temp_warn (%d)", prefix, d.TempCrit, d.TempWarn))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if err := toDiskTable(disks).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("disks: %w", err))
	}
	return errs
}

func validateMonitors(m *MonitorsConfig) []error {
	var errs []error

	for _, iv := range []struct {
		name  string
		value int
	}{
		{"loadavg", m.LoadAvg.Interval},
		{"cputemp", m.CPUTemp.Interval},
		{"hddtemp", m.HDDTemp.Interval},
		{"smart", m.Smart.Interval},
		{"raid", m.RAID.Interval},
	} {
		if iv.value < 1 {
			errs = append(errs, fmt.Errorf("monitors.%s.interval: must be >= 1, got %d", iv.name, iv.value))
		}
	}

	la := m.LoadAvg
	if len(la.Warn) != 3 || len(la.Crit) != 3 {
		errs = append(errs, fmt.Errorf("monitors.loadavg: warn and crit need 3 values each"))
	} else {
		for i := range la.Warn {
			if la.Crit[i] < la.Warn[i] {
				errs = append(errs, fmt.Errorf("monitors.loadavg: crit[%d] (%g) is below warn[%d] (%g)", i, la.Crit[i], i, la.Warn[i]))
			}
		}
	}

	ct := m.CPUTemp
	if len(ct.Inputs) == 0 {
		errs = append(errs, fmt.Errorf("monitors.cputemp.inputs: at least one input is required"))
	}
	if ct.Crit <= ct.Warn {
		errs = append(errs, fmt.Errorf("monitors.cputemp: crit (%g) must be above warn (%g)", ct.Crit, ct.Warn))
	}
	if ct.FanMaxHyst > ct.FanMaxOn || ct.FanHighHyst > ct.FanHighOn {
		errs = append(errs, fmt.Errorf("monitors.cputemp: fan hysteresis thresholds must not exceed their on thresholds"))
	}

	if m.HDDTemp.Timeout < 1 {
		errs = append(errs, fmt.Errorf("monitors.hddtemp.timeout: must be >= 1, got %d", m.HDDTemp.Timeout))
	}
	if m.HDDTemp.MaxOutput < 1 {
		errs = append(errs, fmt.Errorf("monitors.hddtemp.max_output: must be >= 1, got %d", m.HDDTemp.MaxOutput))
	}
	if m.Smart.Timeout < 1 {
		errs = append(errs, fmt.Errorf("monitors.smart.timeout: must be >= 1, got %d", m.Smart.Timeout))
	}
	if m.RAID.Timeout < 1 {
		errs = append(errs, fmt.Errorf("monitors.raid.timeout: must be >= 1, got %d", m.RAID.Timeout))
	}

	return errs
}

// diskLetter returns the device suffix of a /dev/sdX path.
func diskLetter(device string) (byte, bool) {
	if len(device) != len("/dev/sdX") || !strings.HasPrefix(device, "/dev/sd") {
		return 0, false
	}
	c := device[len(device)-1]
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return c, true
}

func toDiskTable(disks []DiskConfig) monitor.DiskTable {
	table := make(monitor.DiskTable, 0, len(disks))
	for _, d := range disks {
		letter, _ := diskLetter(d.Device)
		table = append(table, monitor.Disk{
			Device:      d.Device,
			Letter:      letter,
			Port:        d.Port,
			TempWarn:    d.TempWarn,
			TempCrit:    d.TempCrit,
			TempIgnore:  d.HddtempIgnore,
			SmartIgnore: d.SmartIgnore,
		})
	}
	return table
}

// DiskTable converts the validated [[disks]] entries.
func (c *Config) DiskTable() monitor.DiskTable {
	return toDiskTable(c.Disks)
}
