package monitor

import (
	"log/slog"
	"sync"

	"github.com/kahiteam/hwmond/internal/events"
	"github.com/kahiteam/hwmond/internal/process"
	"github.com/kahiteam/hwmond/internal/timedio"
)

// Observer receives command outcomes and monitor lifecycle changes.
type Observer interface {
	process.Observer
	ObserveMonitorDisabled(monitor string)
}

// Env is the runtime shared by every monitor goroutine. It is built once at
// startup and not modified afterwards, apart from DiskMu.
type Env struct {
	Disks      DiskTable
	Cancel     *timedio.Canceller
	Reaper     *process.Reaper
	Foreground bool
	Logger     *slog.Logger
	Bus        *events.Bus // optional
	Observer   Observer    // optional

	// DiskMu serializes commands that query the disks, so that hddtemp
	// and smartctl never wake the same drive at the same time.
	DiskMu sync.Mutex
}

// NewTask prepares the runtime of the goroutine publishing to r: a
// connection to the reaper and an executor bound to the cancellation token.
func (e *Env) NewTask(r *Record) *Task {
	logger := e.Logger.With("monitor", r.Name())
	conn := e.Reaper.Dial()

	opts := []process.ExecutorOption{process.WithForeground(e.Foreground)}
	if e.Observer != nil {
		opts = append(opts, process.WithObserver(e.Observer))
	}

	return &Task{
		env:    e,
		record: r,
		conn:   conn,
		exec:   process.NewExecutor(conn, e.Cancel, logger, opts...),
		logger: logger,
	}
}
