package daemon

import (
	"os"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// PIDFile is a locked PID file. The lock is held for the daemon's
// lifetime, so a second daemon cannot drive the same LEDs and fan.
type PIDFile struct {
	path string
	l    *flock.Flock
}

// LockPIDFile locks path and writes the current PID to it. An empty path
// returns a nil PIDFile, which is valid to Release.
func LockPIDFile(path string) (*PIDFile, error) {
	if path == "" {
		return nil, nil
	}

	l := flock.New(path)
	locked, err := l.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to lock PID file %s", path)
	}
	if !locked {
		return nil, errors.Errorf("PID file %s is locked; is hwmond already running?", path)
	}

	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		l.Unlock()
		return nil, errors.Wrapf(err, "cannot write PID file %s", path)
	}
	return &PIDFile{path: path, l: l}, nil
}

// Release removes the PID file and drops the lock.
func (p *PIDFile) Release() error {
	if p == nil {
		return nil
	}
	_ = os.Remove(p.path)
	return p.l.Unlock()
}
