package monitors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/pwm"
)

// tempInputMax bounds one hwmon tempN_input file.
const tempInputMax = 32

// CPUTemp reports the hottest CPU core and drives the fan from it. All
// temperatures are millidegrees Celsius, as hwmon reports them.
type CPUTemp struct {
	inputs   []string
	interval time.Duration

	warn, crit int

	maxOn, maxHyst   int
	highOn, highHyst int
}

// NewCPUTemp builds the CPU temperature monitor. cfg must have been
// validated.
func NewCPUTemp(cfg config.CPUTempConfig) *CPUTemp {
	return &CPUTemp{
		inputs:   cfg.Inputs,
		interval: time.Duration(cfg.Interval) * time.Second,
		warn:     milli(cfg.Warn),
		crit:     milli(cfg.Crit),
		maxOn:    milli(cfg.FanMaxOn),
		maxHyst:  milli(cfg.FanMaxHyst),
		highOn:   milli(cfg.FanHighOn),
		highHyst: milli(cfg.FanHighHyst),
	}
}

func milli(c float64) int { return int(c * 1000) }

func (m *CPUTemp) Name() string            { return "cputemp" }
func (m *CPUTemp) Title() string           { return "CPU CORE TEMPERATURE" }
func (m *CPUTemp) Interval() time.Duration { return m.interval }

// InitialPWM keeps the fan at high speed until the first reading.
func (m *CPUTemp) InitialPWM() pwm.Flags { return pwm.FanHighOn }

// Check reads every core and publishes the hottest one's alert level and
// fan request.
func (m *CPUTemp) Check(t *monitor.Task) error {
	temps := make([]int, len(m.inputs))
	for i, path := range m.inputs {
		data, err := t.ReadFile(path, tempInputMax)
		if err != nil {
			return err
		}
		temp, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("%s: malformed temperature %q", path, strings.TrimSpace(string(data)))
		}
		temps[i] = temp
	}

	t.Record().Publish(m.status(temps))
	return nil
}

func (m *CPUTemp) status(temps []int) monitor.Status {
	hottest := temps[0]
	text := make([]string, len(temps))
	for i, temp := range temps {
		hottest = max(hottest, temp)
		text[i] = fmt.Sprintf("CORE%d: %.0f", i, float64(temp)/1000)
	}

	fail := hottest >= m.crit
	return monitor.Status{
		Lower: strings.Join(text, "  "),
		Warn:  !fail && hottest >= m.warn,
		Fail:  fail,
		PWM:   pwm.TempFlags(hottest, m.maxOn, m.maxHyst, m.highOn, m.highHyst),
	}
}
