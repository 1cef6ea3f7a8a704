package timedio

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Canceller is the process-wide cancellation token. Sleep and the executor
// select on Done; Read additionally polls an eventfd that becomes readable
// the moment Cancel is called, so a goroutine blocked in poll(2) wakes up
// immediately instead of at its next timeout.
type Canceller struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	mu     sync.Mutex
	efd    int
	closed bool
}

// NewCanceller creates a token that is also cancelled when parent is done.
func NewCanceller(parent context.Context) (*Canceller, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, errors.Wrap(err, "eventfd")
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Canceller{
		ctx:    ctx,
		cancel: cancel,
		efd:    efd,
	}
	c.stop = context.AfterFunc(ctx, c.signal)
	return c, nil
}

// signal makes the eventfd readable. It is never drained, so every poller
// sees it from then on.
func (c *Canceller) signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, _ = unix.Write(c.efd, one[:])
}

// Cancel requests cancellation. It is safe to call more than once.
func (c *Canceller) Cancel() { c.cancel() }

// Cancelled reports whether cancellation has been requested.
func (c *Canceller) Cancelled() bool { return c.ctx.Err() != nil }

// Done is closed when cancellation has been requested.
func (c *Canceller) Done() <-chan struct{} { return c.ctx.Done() }

// Context returns a context that is cancelled together with the token.
func (c *Canceller) Context() context.Context { return c.ctx }

// Fd returns the eventfd that becomes readable on cancellation.
func (c *Canceller) Fd() int { return c.efd }

// Close cancels the token and releases the eventfd.
func (c *Canceller) Close() error {
	c.stop()
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Wrap(unix.Close(c.efd), "close eventfd")
}
