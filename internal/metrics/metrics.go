// Package metrics collects and exposes Prometheus metrics for hwmond.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all hwmond-specific Prometheus metrics. It satisfies the
// observer interfaces of the monitor, alert and pwm packages.
type Collector struct {
	registry *prometheus.Registry

	// Monitor metrics.
	MonitorEnabled  *prometheus.GaugeVec
	MonitorDisabled *prometheus.CounterVec

	// External command metrics.
	CommandDuration *prometheus.HistogramVec
	CommandResults  *prometheus.CounterVec

	// Outputs.
	AlertActive *prometheus.GaugeVec
	FanState    prometheus.Gauge

	BuildInfo *prometheus.GaugeVec
}

// New creates and registers all hwmond metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		MonitorEnabled: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hwmond_monitor_enabled",
				Help: "Whether a monitor is running (1) or disabled (0).",
			},
			[]string{"monitor"},
		),

		MonitorDisabled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hwmond_monitor_disabled_total",
				Help: "Total number of times a monitor disabled itself after an error.",
			},
			[]string{"monitor"},
		),

		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hwmond_command_duration_seconds",
				Help:    "Wall time of external commands run by monitors.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"command"},
		),

		CommandResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hwmond_command_results_total",
				Help: "External command runs by outcome.",
			},
			[]string{"command", "result"},
		),

		AlertActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hwmond_alert_active",
				Help: "Whether an alert indicator is lit (1) or off (0).",
			},
			[]string{"indicator"},
		),

		FanState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hwmond_fan_state",
				Help: "System fan speed state: 0 normal, 1 high, 2 maximum.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hwmond_info",
				Help: "Build information about hwmond.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.MonitorEnabled,
		c.MonitorDisabled,
		c.CommandDuration,
		c.CommandResults,
		c.AlertActive,
		c.FanState,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetMonitorEnabled records whether a monitor is running.
func (c *Collector) SetMonitorEnabled(monitor string, enabled bool) {
	v := 0.0
	if enabled {
		v = 1
	}
	c.MonitorEnabled.WithLabelValues(monitor).Set(v)
}

// ObserveMonitorDisabled counts a monitor disabling itself.
func (c *Collector) ObserveMonitorDisabled(monitor string) {
	c.MonitorDisabled.WithLabelValues(monitor).Inc()
	c.SetMonitorEnabled(monitor, false)
}

// ObserveCommand records one external command run.
func (c *Collector) ObserveCommand(command string, elapsed time.Duration, result string) {
	c.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
	c.CommandResults.WithLabelValues(command, result).Inc()
}

// ObserveAlert records an indicator turning on or off.
func (c *Collector) ObserveAlert(indicator string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	c.AlertActive.WithLabelValues(indicator).Set(v)
}

// ObserveFanState records the fan state code.
func (c *Collector) ObserveFanState(state int) {
	c.FanState.Set(float64(state))
}
