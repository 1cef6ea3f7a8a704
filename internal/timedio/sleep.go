package timedio

import "time"

// Sleep waits for d, returning early with ErrCancelled as soon as c is
// cancelled. A token that is already cancelled returns immediately.
func Sleep(c *Canceller, d time.Duration) error {
	if c.Cancelled() {
		return ErrCancelled
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-c.Done():
		return ErrCancelled
	}
}
