package monitors

import (
	"time"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
)

// smartctl exit status bits. The low nibble reports command or device
// failures and a failing disk; the high nibble reports prefail attributes
// and logged errors.
const (
	smartFailMask = 0x0f
	smartWarnMask = 0xf0
)

// Smart reports the overall S.M.A.R.T. health of each disk.
type Smart struct {
	command  string
	interval time.Duration
	timeout  time.Duration
}

// NewSmart builds the S.M.A.R.T. monitor.
func NewSmart(cfg config.SmartConfig) *Smart {
	return &Smart{
		command:  cfg.Command,
		interval: time.Duration(cfg.Interval) * time.Second,
		timeout:  time.Duration(cfg.Timeout) * time.Second,
	}
}

func (m *Smart) Name() string            { return "smart" }
func (m *Smart) Title() string           { return "S.M.A.R.T. STATUS" }
func (m *Smart) Interval() time.Duration { return m.interval }

func (m *Smart) argv(device string) []string {
	return []string{m.command, "--device=sat", "--nocheck=standby", "--quietmode=silent", "--health", device}
}

// Check runs smartctl for every disk not ignored, one at a time.
func (m *Smart) Check(t *monitor.Task) error {
	disks := t.Record().Disks()
	line := field()
	alerts := make([]bool, len(disks))
	var warn, fail bool

	for i, d := range disks {
		col := diskColumn(line, d)
		if d.SmartIgnore {
			copy(col, "..")
			continue
		}

		status, err := m.status(t, d.Device)
		if err != nil {
			return err
		}
		switch {
		case status&smartFailMask != 0:
			copy(col, "**")
			alerts[i] = true
			fail = true
		case status&smartWarnMask != 0:
			copy(col, "??")
			alerts[i] = true
			warn = true
		default:
			copy(col, "OK")
		}
	}

	t.Record().Publish(monitor.Status{
		Lower: string(line),
		Warn:  warn && !fail,
		Fail:  fail,
		Disks: alerts,
	})
	return nil
}

func (m *Smart) status(t *monitor.Task, device string) (int, error) {
	mu := &t.Env().DiskMu
	mu.Lock()
	defer mu.Unlock()
	return t.Status(m.argv(device), m.timeout)
}
