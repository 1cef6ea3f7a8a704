package monitors

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
)

// noTemp marks a disk hddtemp did not report.
const noTemp = math.MinInt

// HDDTemp reports disk temperatures as measured by hddtemp.
type HDDTemp struct {
	command   string
	interval  time.Duration
	timeout   time.Duration
	maxOutput int
}

// NewHDDTemp builds the disk temperature monitor. Per-disk thresholds come
// from the disk table.
func NewHDDTemp(cfg config.HDDTempConfig) *HDDTemp {
	return &HDDTemp{
		command:   cfg.Command,
		interval:  time.Duration(cfg.Interval) * time.Second,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		maxOutput: cfg.MaxOutput,
	}
}

func (m *HDDTemp) Name() string            { return "hddtemp" }
func (m *HDDTemp) Title() string           { return "HDD TEMPERATURE" }
func (m *HDDTemp) Interval() time.Duration { return m.interval }

// argv returns the hddtemp command line for the disks not ignored, or nil
// when every disk is.
func (m *HDDTemp) argv(disks monitor.DiskTable) []string {
	argv := []string{m.command}
	for _, d := range disks {
		if !d.TempIgnore {
			argv = append(argv, d.Device)
		}
	}
	if len(argv) == 1 {
		return nil
	}
	return argv
}

// Check runs hddtemp once and publishes the per-disk temperatures.
func (m *HDDTemp) Check(t *monitor.Task) error {
	disks := t.Record().Disks()
	temps := make([]int, len(disks))
	for i := range temps {
		temps[i] = noTemp
	}

	if argv := m.argv(disks); argv != nil {
		out, status, err := m.run(t, argv)
		if err != nil {
			return err
		}
		if status != 0 {
			return fmt.Errorf("hddtemp exited with status %d", status)
		}
		if err := parseHDDTemp(out, disks, temps); err != nil {
			return err
		}
	}

	t.Record().Publish(hddtempStatus(disks, temps))
	return nil
}

func (m *HDDTemp) run(t *monitor.Task, argv []string) ([]byte, int, error) {
	mu := &t.Env().DiskMu
	mu.Lock()
	defer mu.Unlock()
	return t.Output(argv, m.maxOutput, m.timeout)
}

// parseHDDTemp reads lines of the form "/dev/sdX: model: NN°C" into temps,
// indexed like disks. Every line must be newline-terminated and name a
// configured disk.
func parseHDDTemp(out []byte, disks monitor.DiskTable, temps []int) error {
	for len(out) > 0 {
		end := bytes.IndexByte(out, '\n')
		if end < 0 {
			return fmt.Errorf("unexpected end of hddtemp output: %q", out)
		}
		line := out[:end]
		out = out[end+1:]

		letter, temp, ok := parseHDDTempLine(line)
		if !ok {
			return fmt.Errorf("error parsing hddtemp output: %q", line)
		}
		i, ok := disks.IndexOf(letter)
		if !ok {
			return fmt.Errorf("hddtemp reported unknown disk /dev/sd%c", letter)
		}
		temps[i] = temp
	}
	return nil
}

func parseHDDTempLine(line []byte) (letter byte, temp int, ok bool) {
	const prefix = "/dev/sd"
	if !bytes.HasPrefix(line, []byte(prefix)) || len(line) < len(prefix)+2 {
		return 0, 0, false
	}
	letter = line[len(prefix)]
	rest := line[len(prefix)+1:]
	if rest[0] != ':' {
		return 0, 0, false
	}
	rest = rest[1:]

	// The model must be non-empty and runs to the next colon.
	colon := bytes.IndexByte(rest, ':')
	if colon <= 0 {
		return 0, 0, false
	}
	rest = bytes.TrimLeft(rest[colon+1:], " \t")

	n := 0
	if n < len(rest) && (rest[n] == '-' || rest[n] == '+') {
		n++
	}
	digits := n
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == digits {
		return 0, 0, false
	}
	temp, err := strconv.Atoi(string(rest[:n]))
	if err != nil {
		return 0, 0, false
	}
	return letter, temp, true
}

// hddtempStatus places each disk's reading at its port's column and raises
// the disk's alert at or above its critical or warning threshold. A
// missing or non-positive reading counts as critical.
func hddtempStatus(disks monitor.DiskTable, temps []int) monitor.Status {
	line := field()
	alerts := make([]bool, len(disks))
	var warn, fail bool

	for i, d := range disks {
		col := diskColumn(line, d)
		if d.TempIgnore {
			copy(col, "...")
			continue
		}

		temp := temps[i]
		switch {
		case temp == noTemp:
			copy(col, "???")
		case temp < -99:
			copy(col, "-**")
		case temp > 999:
			copy(col, "***")
		default:
			copy(col, strconv.Itoa(temp))
		}

		switch {
		case temp >= d.TempCrit || temp <= 0:
			alerts[i] = true
			fail = true
			warn = false
		case temp >= d.TempWarn:
			alerts[i] = true
			warn = !fail
		}
	}

	return monitor.Status{
		Lower: string(line),
		Warn:  warn,
		Fail:  fail,
		Disks: alerts,
	}
}
