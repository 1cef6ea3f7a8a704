package timedio

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ReadAll reads fd until end of file into *buf, growing it with Grow as it
// fills. It returns the number of bytes read, or ErrTimeout, ErrCancelled,
// ErrCapExceeded, or a wrapped OS error. On success the data is followed by
// a NUL byte at (*buf)[n] and *timeout holds the remaining budget.
//
// A buffer left longer by an earlier call with a larger max is cut back to
// BufferCap(max) first; its capacity is kept for reuse.
func ReadAll(c *Canceller, fd int, buf *[]byte, max int, timeout *time.Duration) (int, error) {
	if lim := BufferCap(max); len(*buf) > lim {
		*buf = (*buf)[:lim]
	}
	total := 0

	for {
		// When the input is an exact multiple of ChunkSize the buffer is
		// grown once more before the read that returns end of file, which
		// leaves room for the terminator.
		if total == len(*buf) {
			if err := Grow(buf, max); err != nil {
				return 0, err
			}
		}

		n, err := Read(c, fd, (*buf)[total:], timeout)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			break
		}
		total += n
	}

	(*buf)[total] = 0
	return total, nil
}

// ReadFile opens path and reads it with ReadAll. Proc and sysfs files are
// always readable, so callers usually pass a zero timeout.
func ReadFile(c *Canceller, path string, buf *[]byte, max int, timeout *time.Duration) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}

	n, err := ReadAll(c, fd, buf, max, timeout)
	if cerr := unix.Close(fd); cerr != nil && err == nil {
		return 0, errors.Wrapf(cerr, "close %s", path)
	}
	return n, err
}
