package monitor

import (
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/kahiteam/hwmond/internal/events"
	"github.com/kahiteam/hwmond/internal/process"
	"github.com/kahiteam/hwmond/internal/timedio"
)

// FileTimeout bounds reads of proc and sysfs files.
const FileTimeout = time.Second

// Task is the runtime of one monitor goroutine. It is not safe for
// concurrent use.
type Task struct {
	env    *Env
	record *Record
	conn   *process.Conn
	exec   *process.Executor
	logger *slog.Logger

	// buf is reused by Output and ReadFile across cycles.
	buf []byte
}

// Record returns the record the task publishes to.
func (t *Task) Record() *Record { return t.record }

// Env returns the shared runtime.
func (t *Task) Env() *Env { return t.env }

// Logger returns the task's logger.
func (t *Task) Logger() *slog.Logger { return t.logger }

// Output runs argv, capturing at most max bytes of its standard output, and
// returns the output and exit status. The returned slice aliases the
// task's buffer and is only valid until the next call.
func (t *Task) Output(argv []string, max int, timeout time.Duration) ([]byte, int, error) {
	n, status, err := t.exec.Output(argv, &t.buf, max, &timeout)
	if err != nil {
		return nil, 0, err
	}
	return t.buf[:n], status, nil
}

// Status runs argv without capturing output and returns its exit status.
func (t *Task) Status(argv []string, timeout time.Duration) (int, error) {
	return t.exec.Status(argv, &timeout)
}

// ReadFile reads a proc or sysfs file of at most max bytes. The returned
// slice aliases the task's buffer.
func (t *Task) ReadFile(path string, max int) ([]byte, error) {
	timeout := FileTimeout
	n, err := timedio.ReadFile(t.env.Cancel, path, &t.buf, max, &timeout)
	if err != nil {
		return nil, err
	}
	return t.buf[:n], nil
}

// Sleep waits for d or until the daemon shuts down.
func (t *Task) Sleep(d time.Duration) error {
	return timedio.Sleep(t.env.Cancel, d)
}

// Fail disables the monitor: the fail alert is requested and the panel
// shows DisabledMessage. The goroutine keeps running.
func (t *Task) Fail() {
	t.logger.Warn("disabling monitor")
	t.record.Fail()

	if t.env.Observer != nil {
		t.env.Observer.ObserveMonitorDisabled(t.record.Name())
	}
	if t.env.Bus != nil {
		t.env.Bus.Publish(events.Event{
			Type: events.MonitorDisabled,
			Data: map[string]string{"monitor": t.record.Name()},
		})
	}
}

// FailAndExit disables the monitor and ends the calling goroutine.
// Deferred calls run as usual.
func (t *Task) FailAndExit() {
	t.Fail()
	runtime.Goexit()
}

// CloseAndExit releases the reaper connection and the input buffer, then
// disables the monitor and ends the calling goroutine.
func (t *Task) CloseAndExit() {
	t.Close()
	t.FailAndExit()
}

// Close releases the task's reaper connection and buffer.
func (t *Task) Close() {
	if err := t.conn.Close(); err != nil {
		t.logger.Error("close failed", "op", "close", "error", err)
	}
	t.buf = nil
}

// Cycle gathers data and publishes it to the task's record once.
type Cycle func(t *Task) error

// Run calls cycle every interval until the daemon shuts down. Timeouts are
// logged and retried at the next cycle; any other error disables the
// monitor for good.
func (t *Task) Run(interval time.Duration, cycle Cycle) {
	for {
		err := cycle(t)
		switch {
		case err == nil:
		case errors.Is(err, timedio.ErrTimeout):
			t.logger.Warn("check timed out, retrying next cycle", "error", err)
		case errors.Is(err, timedio.ErrCancelled):
			t.Close()
			return
		default:
			t.logger.Error("check failed", "error", err)
			t.CloseAndExit()
		}

		if err := t.Sleep(interval); err != nil {
			t.Close()
			return
		}
	}
}
