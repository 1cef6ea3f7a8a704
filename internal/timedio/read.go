package timedio

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Read performs a single read(2) on fd, waiting at most *timeout for it to
// become readable. It returns the number of bytes read (0 at end of file),
// ErrTimeout, ErrCancelled, or a wrapped OS error. On success, including end
// of file, *timeout is updated to the remaining budget.
//
// Readiness is only a hint: pipes, regular files, and proc/sysfs files
// disagree about what poll(2) reports, so spurious wake-ups and would-block
// reads are retried until the deadline.
func Read(c *Canceller, fd int, p []byte, timeout *time.Duration) (int, error) {
	deadline := Deadline(*timeout)

	fds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN},
		{Fd: int32(c.Fd()), Events: unix.POLLIN},
	}

	for !c.Cancelled() {
		*timeout = Remaining(deadline)

		fds[0].Revents = 0
		fds[1].Revents = 0

		n, err := unix.Poll(fds, pollTimeout(*timeout))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, errors.Wrap(err, "poll")
		}

		if fds[1].Revents != 0 {
			break
		}

		if n == 0 {
			*timeout = 0
			return 0, ErrTimeout
		}

		r, err := unix.Read(fd, p)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				// The remaining budget is recomputed at the top of the
				// loop; with nothing left, give up rather than spin.
				if Remaining(deadline) == 0 {
					*timeout = 0
					return 0, ErrTimeout
				}
				continue
			}
			return 0, errors.Wrap(err, "read")
		}

		*timeout = Remaining(deadline)
		return r, nil
	}

	return 0, ErrCancelled
}

// pollTimeout converts d to poll(2) milliseconds, rounding up so a short
// non-zero budget still blocks instead of busy-polling.
func pollTimeout(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
