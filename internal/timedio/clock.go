package timedio

import "time"

// Clock abstracts the monotonic time source for testability.
type Clock interface {
	Now() time.Time
}

// realClock uses time.Now, whose readings carry the monotonic clock, so
// deadline arithmetic is unaffected by wall-clock adjustments.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// clock is swapped out by tests.
var clock Clock = realClock{}

// Deadline converts a relative timeout into an absolute deadline. Negative
// timeouts are treated as zero.
func Deadline(timeout time.Duration) time.Time {
	if timeout < 0 {
		timeout = 0
	}
	return clock.Now().Add(timeout)
}

// Remaining returns the time left until deadline, clamped to zero. A zero
// result means "poll once, don't block"; an expired deadline is not an error.
func Remaining(deadline time.Time) time.Duration {
	d := deadline.Sub(clock.Now())
	if d < 0 {
		return 0
	}
	return d
}
