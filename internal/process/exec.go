package process

import (
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/kahiteam/hwmond/internal/timedio"
)

// ErrAbnormalExit is returned when a child was terminated by a signal
// instead of exiting.
var ErrAbnormalExit = errors.New("child process did not terminate normally")

// Observer is told how every command run ended.
type Observer interface {
	ObserveCommand(command string, elapsed time.Duration, result string)
}

// Executor runs external diagnostic commands for one monitor. Process
// creation and teardown go through the reaper; every path out of Output or
// Status that does not know the child has exited kills it first.
type Executor struct {
	conn       *Conn
	cancel     *timedio.Canceller
	foreground bool
	logger     *slog.Logger
	observer   Observer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithForeground leaves stdout and stderr inheritable by children.
func WithForeground(fg bool) ExecutorOption {
	return func(e *Executor) { e.foreground = fg }
}

// WithObserver reports command outcomes to o.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

// NewExecutor creates an executor that spawns through conn and observes
// cancel.
func NewExecutor(conn *Conn, cancel *timedio.Canceller, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		conn:   conn,
		cancel: cancel,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Conn returns the executor's reaper connection.
func (e *Executor) Conn() *Conn { return e.conn }

// Output runs argv with its stdout captured into *buf (grown up to max
// bytes) and returns the number of bytes read and the exit status (0-255).
// Reading the output and waiting for the exit share *timeout. Errors are
// timedio.ErrTimeout, timedio.ErrCancelled, timedio.ErrCapExceeded,
// ErrAbnormalExit, or a wrapped OS/reaper error.
func (e *Executor) Output(argv []string, buf *[]byte, max int, timeout *time.Duration) (n, status int, err error) {
	start := time.Now()
	defer func() { e.observe(argv, start, err) }()

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return 0, 0, errors.Wrap(err, "pipe2")
	}
	rfd := p[0]
	w := os.NewFile(uintptr(p[1]), "stdout-pipe")

	pid, err := e.conn.Spawn(SpawnConfig{
		Argv:       argv,
		Stdout:     w,
		Foreground: e.foreground,
	})
	cerr := w.Close()
	if err != nil {
		e.closeFd(rfd)
		return 0, 0, err
	}
	if cerr != nil {
		e.closeFd(rfd)
		e.kill(pid)
		return 0, 0, errors.Wrap(cerr, "close pipe write end")
	}

	n, err = timedio.ReadAll(e.cancel, rfd, buf, max, timeout)
	if err != nil {
		e.closeFd(rfd)
		e.kill(pid)
		return 0, 0, err
	}

	if err := unix.Close(rfd); err != nil {
		e.kill(pid)
		return 0, 0, errors.Wrap(err, "close pipe read end")
	}

	ws, err := e.conn.Wait(e.cancel, pid, timeout)
	if err != nil {
		e.kill(pid)
		return 0, 0, err
	}

	status, err = e.exitStatus(argv, ws)
	if err != nil {
		return 0, 0, err
	}
	return n, status, nil
}

// Status runs argv without capturing its output and returns its exit status
// (0-255), with the same timeout and kill discipline as Output.
func (e *Executor) Status(argv []string, timeout *time.Duration) (status int, err error) {
	start := time.Now()
	defer func() { e.observe(argv, start, err) }()

	pid, err := e.conn.Spawn(SpawnConfig{
		Argv:       argv,
		Foreground: e.foreground,
	})
	if err != nil {
		return 0, err
	}

	ws, err := e.conn.Wait(e.cancel, pid, timeout)
	if err != nil {
		e.kill(pid)
		return 0, err
	}

	return e.exitStatus(argv, ws)
}

func (e *Executor) exitStatus(argv []string, ws syscall.WaitStatus) (int, error) {
	if !ws.Exited() {
		e.logger.Warn("child process did not terminate normally",
			"command", argv[0], "signal", ws.Signal().String())
		return 0, errors.Wrapf(ErrAbnormalExit, "%s: %s", argv[0], ws.Signal())
	}
	return ws.ExitStatus(), nil
}

func (e *Executor) kill(pid int) {
	if err := e.conn.Kill(pid); err != nil {
		e.logger.Error("failed to kill child", "pid", pid, "error", err)
	}
}

func (e *Executor) closeFd(fd int) {
	if err := unix.Close(fd); err != nil {
		e.logger.Error("close failed", "op", "close", "error", err)
	}
}

func (e *Executor) observe(argv []string, start time.Time, err error) {
	if e.observer == nil || len(argv) == 0 {
		return
	}
	e.observer.ObserveCommand(filepath.Base(argv[0]), time.Since(start), Outcome(err))
}

// Outcome classifies err into a short result label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, timedio.ErrTimeout):
		return "timeout"
	case errors.Is(err, timedio.ErrCancelled):
		return "cancelled"
	case errors.Is(err, timedio.ErrCapExceeded):
		return "cap_exceeded"
	case errors.Is(err, ErrAbnormalExit):
		return "abnormal_exit"
	default:
		return "error"
	}
}
