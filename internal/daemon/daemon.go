// Package daemon runs hwmond: it starts the monitor goroutines, drives the
// alert LEDs, the system fan and the panel from their records, and tears
// everything down again on shutdown.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/events"
	"github.com/kahiteam/hwmond/internal/logging"
	"github.com/kahiteam/hwmond/internal/metrics"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/monitors"
	"github.com/kahiteam/hwmond/internal/panel"
	"github.com/kahiteam/hwmond/internal/process"
	"github.com/kahiteam/hwmond/internal/pwm"
	"github.com/kahiteam/hwmond/internal/timedio"
	"github.com/kahiteam/hwmond/internal/version"
)

// Options configures a daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Foreground bool
	Logger     *slog.Logger
	Spawner    process.Spawner // defaults to process.ExecSpawner
}

// Daemon is the hwmond main loop.
type Daemon struct {
	cfg        *config.Config
	configPath string
	foreground bool
	logger     *slog.Logger
	spawner    process.Spawner

	pid      *PIDFile
	cancel   *timedio.Canceller
	reaper   *process.Reaper
	bus      *events.Bus
	webhooks *events.WebhookManager
	metrics  *metrics.Collector
	server   *metricsServer
	board    *alert.Board
	fanFile  *pwm.FileWriter
	fan      *pwm.Controller
	panel    panel.Renderer

	records  []*monitor.Record // logo first, then enabled monitors
	monitors sync.WaitGroup

	mu         sync.Mutex
	shutting   bool
	shutdownCh chan struct{}
	doneCh     chan struct{}
}

// New creates a daemon. Nothing is opened until Run.
func New(opts Options) *Daemon {
	spawner := opts.Spawner
	if spawner == nil {
		spawner = &process.ExecSpawner{}
	}
	return &Daemon{
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		foreground: opts.Foreground,
		logger:     opts.Logger,
		spawner:    spawner,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Run starts the daemon and blocks until ctx is done, Shutdown is called,
// a termination signal arrives, or the alert board fails.
func (d *Daemon) Run(ctx context.Context) error {
	defer close(d.doneCh)

	if err := d.start(); err != nil {
		d.stop()
		return err
	}

	signals := NewSignalQueue()
	defer signals.Stop()

	d.bus.Publish(events.Event{
		Type: events.DaemonStateRunning,
		Data: map[string]string{"pid": fmt.Sprint(os.Getpid())},
	})
	d.logger.Info("hwmond running",
		"pid", os.Getpid(),
		"config", d.configPath,
		"monitors", len(d.records)-1,
		"metrics", d.cfg.Daemon.ListenAddr(),
	)

	err := d.displayLoop(ctx, signals.C)
	if err != nil {
		d.logger.Error("display loop failed", "error", err)
	}

	d.Shutdown()
	d.logger.Info("shutting down")
	d.bus.Publish(events.Event{
		Type: events.DaemonStateStopping,
		Data: map[string]string{},
	})
	d.stop()
	d.logger.Info("shutdown complete")
	return err
}

func (d *Daemon) start() error {
	var err error

	d.pid, err = LockPIDFile(d.cfg.Daemon.Pidfile)
	if err != nil {
		return err
	}

	d.cancel, err = timedio.NewCanceller(context.Background())
	if err != nil {
		return errors.Wrap(err, "cannot create cancellation token")
	}

	d.bus = events.NewBus(d.logger)
	d.webhooks = events.NewWebhookManager(d.bus, d.cfg.WebhookConfigs(), d.logger)

	d.metrics = metrics.New()
	d.metrics.SetBuildInfo(version.Version, version.GoVersion())

	if config.IsEnabled(d.cfg.Alerts.Enabled, true) {
		var names [alert.NumIndicators]string
		copy(names[:], d.cfg.Alerts.LEDs)
		d.board, err = alert.OpenBoard(alert.BoardConfig{Dir: d.cfg.Alerts.LEDDir, Names: names}, d.bus, d.logger)
		if err != nil {
			return errors.Wrap(err, "cannot open alert LEDs")
		}
		d.board.SetObserver(d.metrics)
	}

	if config.IsEnabled(d.cfg.PWM.Enabled, true) {
		d.fanFile, err = pwm.OpenFile(d.cfg.PWM.File)
		if err != nil {
			return errors.Wrap(err, "cannot open fan control")
		}
		values := pwm.Values{d.cfg.PWM.Normal, d.cfg.PWM.High, d.cfg.PWM.Maximum}
		fan := pwm.NewController(d.fanFile, values, d.bus, d.logger)
		fan.SetObserver(d.metrics)
		d.mu.Lock()
		d.fan = fan
		d.mu.Unlock()
	}

	d.panel, err = panel.Open(d.cfg.Daemon.PanelDevice, d.logger)
	if err != nil {
		return err
	}

	d.reaper = process.NewReaper(d.spawner, d.logger)
	d.reaper.Start()

	d.startMonitors()

	if addr := d.cfg.Daemon.MetricsListen; addr != "" {
		d.server, err = newMetricsServer(d, d.cfg.Daemon.DisplayInterval, d.logger)
		if err != nil {
			return err
		}
		if err := d.server.Start(addr); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) startMonitors() {
	env := &monitor.Env{
		Disks:      d.cfg.DiskTable(),
		Cancel:     d.cancel,
		Reaper:     d.reaper,
		Foreground: d.foreground,
		Logger:     d.logger,
		Bus:        d.bus,
		Observer:   d.metrics,
	}

	d.records = []*monitor.Record{panel.Logo()}

	enabled := make(map[string]bool)
	for _, m := range monitors.Enabled(d.cfg) {
		enabled[m.Name()] = true
		r := monitors.NewRecord(m, env.Disks)
		d.records = append(d.records, r)

		d.monitors.Add(1)
		go func() {
			defer d.monitors.Done()
			monitors.Run(env, m, r)
		}()

		logging.ForMonitor(d.logger, m.Name()).Info("monitor started", "interval", m.Interval())
		d.bus.Publish(events.Event{
			Type: events.MonitorStarted,
			Data: map[string]string{"monitor": m.Name()},
		})
	}
	for _, name := range monitors.Names {
		d.metrics.SetMonitorEnabled(name, enabled[name])
	}
}

// displayLoop shows one record per display interval, round robin.
func (d *Daemon) displayLoop(ctx context.Context, signals <-chan os.Signal) error {
	interval := time.Duration(d.cfg.Daemon.DisplayInterval) * time.Second
	timer := time.NewTimer(0)
	defer timer.Stop()

	for i := 0; ; i = (i + 1) % len(d.records) {
		select {
		case <-timer.C:
		case sig := <-signals:
			d.logger.Info("received signal", "signal", sig.String())
			if isShutdown(sig) {
				return nil
			}
			d.logger.Warn("ignoring signal; restart hwmond to apply configuration changes", "signal", sig.String())
			i-- // the page was not shown yet
			continue
		case <-ctx.Done():
			return nil
		case <-d.shutdownCh:
			return nil
		}

		if err := d.show(d.records[i]); err != nil {
			return err
		}
		timer.Reset(interval)
	}
}

// show acknowledges the alert requests of r, passes its fan request on,
// and renders its page. Errors from the board or the fan are fatal.
func (d *Daemon) show(r *monitor.Record) error {
	var page panel.Page
	var flags pwm.Flags

	err := r.Visit(func(disp *monitor.Display, cells *alert.Cells, f pwm.Flags) error {
		page = panel.Page{Monitor: r.Name(), Display: *disp}
		flags = f
		if d.board == nil {
			return nil
		}
		return d.board.Acknowledge(r.Name(), cells)
	})
	if err != nil {
		return errors.Wrapf(err, "alert board (%s)", r.Name())
	}

	if d.fan != nil {
		if err := d.fan.Update(r.Name(), flags); err != nil {
			return errors.Wrapf(err, "fan control (%s)", r.Name())
		}
	}

	if err := d.panel.Render(page); err != nil {
		d.logger.Error("panel write failed", "op", "write", "error", err)
	}
	return nil
}

// stop releases whatever start acquired. Monitors are cancelled and waited
// for before the reaper stops.
func (d *Daemon) stop() {
	if d.cancel != nil {
		d.cancel.Cancel()
	}
	d.waitForMonitors()

	if d.reaper != nil {
		d.reaper.Stop()
	}
	if d.cancel != nil {
		if err := d.cancel.Close(); err != nil {
			d.logger.Error("close failed", "op", "close", "error", err)
		}
	}
	if d.panel != nil {
		if err := d.panel.Close(); err != nil {
			d.logger.Error("panel close failed", "error", err)
		}
	}
	if d.fanFile != nil {
		d.fanFile.Close()
	}
	if d.board != nil {
		if err := d.board.Close(); err != nil {
			d.logger.Error("turning LEDs off failed", "error", err)
		}
	}
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.server.Stop(ctx); err != nil {
			d.logger.Error("metrics server shutdown failed", "error", err)
		}
		cancel()
	}
	if d.webhooks != nil {
		d.webhooks.Stop()
	}
	if err := d.pid.Release(); err != nil {
		d.logger.Error("cannot release PID file", "error", err)
	}
}

func (d *Daemon) waitForMonitors() {
	done := make(chan struct{})
	go func() {
		d.monitors.Wait()
		close(done)
	}()

	timeout := time.Duration(d.cfg.Daemon.ShutdownTimeout) * time.Second
	select {
	case <-done:
	case <-time.After(timeout):
		d.logger.Warn("shutdown timeout exceeded, stopping reaper with monitors still running",
			"timeout", timeout)
	}
}

// Shutdown triggers a graceful shutdown.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.shutting {
		d.shutting = true
		close(d.shutdownCh)
	}
}

// IsShuttingDown reports whether shutdown has begun.
func (d *Daemon) IsShuttingDown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutting
}

// Metrics returns the daemon's collector. It is nil before Run.
func (d *Daemon) Metrics() *metrics.Collector { return d.metrics }

// Done returns a channel that closes when Run has returned.
func (d *Daemon) Done() <-chan struct{} { return d.doneCh }

// Snapshots returns a copy of every record shown on the panel, logo first.
func (d *Daemon) Snapshots() []monitor.Snapshot {
	out := make([]monitor.Snapshot, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r.Snapshot())
	}
	return out
}

// FanState returns the fan state, or Normal when fan control is disabled.
func (d *Daemon) FanState() pwm.State {
	d.mu.Lock()
	fan := d.fan
	d.mu.Unlock()
	if fan == nil {
		return pwm.Normal
	}
	return fan.State()
}
