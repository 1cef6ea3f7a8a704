package monitors

import (
	"testing"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
)

func TestLoadAvgCheck(t *testing.T) {
	cfg := config.Default()
	cfg.Monitors.LoadAvg.Path = writeFile(t, t.TempDir(), "loadavg", "13.50 2.00 1.00 2/345 6789\n", 0644)

	snap, err := CheckOnce(testEnv(t, testDisks()), NewLoadAvg(cfg.Monitors.LoadAvg))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Display.Lower != monitor.NewField("13.50 2.00 1.00") {
		t.Errorf("lower = %q", snap.Display.Lower)
	}
	if snap.Display.Upper != monitor.NewField("LOAD AVERAGE") {
		t.Errorf("upper = %q", snap.Display.Upper)
	}
	if snap.Alerts.Warn != alert.SetReq {
		t.Errorf("warn = %s, want SET_REQ", snap.Alerts.Warn)
	}
	if snap.Alerts.Fail != alert.ClearAck {
		t.Errorf("fail = %s, want CLEAR_ACK", snap.Alerts.Fail)
	}
}

func TestLoadAvgMalformed(t *testing.T) {
	for _, content := range []string{"", "1.0 2.0\n", "1.0 x 3.0\n"} {
		cfg := config.Default()
		cfg.Monitors.LoadAvg.Path = writeFile(t, t.TempDir(), "loadavg", content, 0644)

		snap, err := CheckOnce(testEnv(t, testDisks()), NewLoadAvg(cfg.Monitors.LoadAvg))
		if err == nil {
			t.Errorf("%q: expected error", content)
			continue
		}
		if !snap.Failed {
			t.Errorf("%q: record not failed", content)
		}
	}
}

func TestLoadAvgEvaluate(t *testing.T) {
	m := NewLoadAvg(config.LoadAvgConfig{
		Interval: 30,
		Warn:     []float64{4, 3, 2},
		Crit:     []float64{8, 6, 4},
	})

	tests := []struct {
		avgs       [3]float64
		warn, fail bool
	}{
		{[3]float64{0, 0, 0}, false, false},
		{[3]float64{3.99, 2.99, 1.99}, false, false},
		{[3]float64{4, 0, 0}, true, false},
		{[3]float64{0, 0, 2}, true, false},
		{[3]float64{8, 0, 0}, false, true},
		{[3]float64{5, 5, 4}, false, true},
		{[3]float64{0, 6, 0}, false, true},
	}
	for _, tt := range tests {
		warn, fail := m.evaluate(tt.avgs)
		if warn != tt.warn || fail != tt.fail {
			t.Errorf("evaluate(%v) = %v, %v; want %v, %v", tt.avgs, warn, fail, tt.warn, tt.fail)
		}
	}
}

func TestParseLoadAvg(t *testing.T) {
	avgs, err := parseLoadAvg([]byte("0.52 0.58 0.59 1/467 12345\n"))
	if err != nil {
		t.Fatal(err)
	}
	if avgs != [3]float64{0.52, 0.58, 0.59} {
		t.Errorf("avgs = %v", avgs)
	}
}
