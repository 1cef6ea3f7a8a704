package monitors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
)

// loadAvgMax bounds /proc/loadavg, which is well under 64 bytes.
const loadAvgMax = 128

// LoadAvg reports the 1, 5 and 15 minute load averages.
type LoadAvg struct {
	path     string
	interval time.Duration
	warn     [3]float64
	crit     [3]float64
}

// NewLoadAvg builds the load average monitor. cfg must have been validated.
func NewLoadAvg(cfg config.LoadAvgConfig) *LoadAvg {
	m := &LoadAvg{
		path:     cfg.Path,
		interval: time.Duration(cfg.Interval) * time.Second,
	}
	copy(m.warn[:], cfg.Warn)
	copy(m.crit[:], cfg.Crit)
	return m
}

func (m *LoadAvg) Name() string            { return "loadavg" }
func (m *LoadAvg) Title() string           { return "LOAD AVERAGE" }
func (m *LoadAvg) Interval() time.Duration { return m.interval }

// Check reads the load averages and compares them with the thresholds.
func (m *LoadAvg) Check(t *monitor.Task) error {
	data, err := t.ReadFile(m.path, loadAvgMax)
	if err != nil {
		return err
	}
	avgs, err := parseLoadAvg(data)
	if err != nil {
		return fmt.Errorf("%s: %w", m.path, err)
	}

	warn, fail := m.evaluate(avgs)
	t.Record().Publish(monitor.Status{
		Lower: fmt.Sprintf("%.2f %.2f %.2f", avgs[0], avgs[1], avgs[2]),
		Warn:  warn,
		Fail:  fail,
	})
	return nil
}

// evaluate reports a failure if any average reaches its critical
// threshold, otherwise a warning if any reaches its warning threshold.
func (m *LoadAvg) evaluate(avgs [3]float64) (warn, fail bool) {
	for i, avg := range avgs {
		if avg >= m.crit[i] {
			return false, true
		}
		if avg >= m.warn[i] {
			warn = true
		}
	}
	return warn, false
}

func parseLoadAvg(data []byte) ([3]float64, error) {
	var avgs [3]float64
	f := strings.Fields(string(data))
	if len(f) < 3 {
		return avgs, fmt.Errorf("malformed load average %q", data)
	}
	for i := range avgs {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return avgs, fmt.Errorf("malformed load average %q", f[i])
		}
		avgs[i] = v
	}
	return avgs, nil
}
