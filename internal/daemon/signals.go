package daemon

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalQueue captures OS signals for the main loop.
type SignalQueue struct {
	C  <-chan os.Signal
	ch chan os.Signal
}

// NewSignalQueue registers for SIGTERM, SIGINT, SIGQUIT and SIGHUP.
func NewSignalQueue() *SignalQueue {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)
	return &SignalQueue{C: ch, ch: ch}
}

// Stop deregisters signal notifications.
func (sq *SignalQueue) Stop() {
	signal.Stop(sq.ch)
}

// isShutdown reports whether sig ends the daemon. SIGHUP is logged and
// ignored; the disk table cannot change while monitors run.
func isShutdown(sig os.Signal) bool {
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT:
		return true
	}
	return false
}
