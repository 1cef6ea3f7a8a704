// Package config handles loading and validating hwmond configuration.
package config

// Config is the top-level hwmond configuration.
type Config struct {
	Daemon   DaemonConfig             `toml:"daemon"`
	Disks    []DiskConfig             `toml:"disks"`
	Alerts   AlertsConfig             `toml:"alerts"`
	PWM      PWMConfig                `toml:"pwm"`
	Monitors MonitorsConfig           `toml:"monitors"`
	Webhooks map[string]WebhookConfig `toml:"webhooks"`
}

// DaemonConfig holds daemon-level settings.
type DaemonConfig struct {
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	LogFile         string `toml:"log_file"`
	Pidfile         string `toml:"pidfile"`
	DisplayInterval int    `toml:"display_interval"`
	MetricsListen   string `toml:"metrics_listen"`
	PanelDevice     string `toml:"panel_device"`
	ShutdownTimeout int    `toml:"shutdown_timeout"`
}

// DiskConfig describes one RAID member disk.
type DiskConfig struct {
	Device        string `toml:"device"`
	Port          int    `toml:"port"`
	TempWarn      int    `toml:"temp_warn"`
	TempCrit      int    `toml:"temp_crit"`
	HddtempIgnore bool   `toml:"hddtemp_ignore"`
	SmartIgnore   bool   `toml:"smart_ignore"`
}

// AlertsConfig holds the LED board settings.
type AlertsConfig struct {
	Enabled *bool    `toml:"enabled"`
	LEDDir  string   `toml:"led_dir"`
	LEDs    []string `toml:"leds"`
}

// PWMConfig holds the system fan settings.
type PWMConfig struct {
	Enabled *bool  `toml:"enabled"`
	File    string `toml:"file"`
	Normal  int    `toml:"normal"`
	High    int    `toml:"high"`
	Maximum int    `toml:"maximum"`
}

// MonitorsConfig groups the per-monitor sections.
type MonitorsConfig struct {
	LoadAvg LoadAvgConfig `toml:"loadavg"`
	CPUTemp CPUTempConfig `toml:"cputemp"`
	HDDTemp HDDTempConfig `toml:"hddtemp"`
	Smart   SmartConfig   `toml:"smart"`
	RAID    RAIDConfig    `toml:"raid"`
}

// LoadAvgConfig holds load average monitor settings.
type LoadAvgConfig struct {
	Enabled  *bool     `toml:"enabled"`
	Interval int       `toml:"interval"`
	Path     string    `toml:"path"`
	Warn     []float64 `toml:"warn"`
	Crit     []float64 `toml:"crit"`
}

// CPUTempConfig holds CPU core temperature monitor settings. Temperatures
// are in degrees Celsius.
type CPUTempConfig struct {
	Enabled     *bool    `toml:"enabled"`
	Interval    int      `toml:"interval"`
	Inputs      []string `toml:"inputs"`
	Warn        float64  `toml:"warn"`
	Crit        float64  `toml:"crit"`
	FanMaxOn    float64  `toml:"fan_max_on"`
	FanMaxHyst  float64  `toml:"fan_max_hyst"`
	FanHighOn   float64  `toml:"fan_high_on"`
	FanHighHyst float64  `toml:"fan_high_hyst"`
}

// HDDTempConfig holds disk temperature monitor settings. Warn and Crit are
// the defaults for disks that do not set their own thresholds.
type HDDTempConfig struct {
	Enabled   *bool  `toml:"enabled"`
	Interval  int    `toml:"interval"`
	Command   string `toml:"command"`
	Timeout   int    `toml:"timeout"`
	MaxOutput int    `toml:"max_output"`
	Warn      int    `toml:"warn"`
	Crit      int    `toml:"crit"`
}

// SmartConfig holds S.M.A.R.T. health monitor settings.
type SmartConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Interval int    `toml:"interval"`
	Command  string `toml:"command"`
	Timeout  int    `toml:"timeout"`
}

// RAIDConfig holds RAID status monitor settings. Arrays listed in
// MdadmConf are expected to be running.
type RAIDConfig struct {
	Enabled   *bool  `toml:"enabled"`
	Interval  int    `toml:"interval"`
	Mdstat    string `toml:"mdstat"`
	MdadmConf string `toml:"mdadm_conf"`
	SysfsDir  string `toml:"sysfs_dir"`
	Command   string `toml:"command"`
	Timeout   int    `toml:"timeout"`
}

// WebhookConfig holds per-webhook settings.
type WebhookConfig struct {
	URL           string            `toml:"url"`
	Events        []string          `toml:"events"`
	Headers       map[string]string `toml:"headers"`
	Timeout       int               `toml:"timeout"`
	Retries       int               `toml:"retries"`
	Template      string            `toml:"template"`
	RoutingKey    string            `toml:"routing_key"`
	AllowInsecure bool              `toml:"allow_insecure"`
}

// IsEnabled reports the value of an optional boolean, or def when unset.
func IsEnabled(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
