// Package timedio provides the blocking primitives monitor goroutines are
// allowed to block in: cancellable sleeps, deadline arithmetic, bounded
// buffer growth, and time-bounded reads from raw file descriptors.
//
// Every blocking call observes the process-wide Canceller and returns
// ErrCancelled as soon as it is cancelled. Operations that take a
// *time.Duration treat it as the remaining budget of a larger operation: the
// value is consumed by the call and left holding what is still available.
package timedio

import "errors"

// Result sentinels shared by Read, ReadAll, Grow, and the process executor.
// Unexpected OS failures are returned wrapped instead.
var (
	ErrTimeout     = errors.New("timed out")
	ErrCancelled   = errors.New("cancelled")
	ErrCapExceeded = errors.New("maximum buffer size exceeded")
)
