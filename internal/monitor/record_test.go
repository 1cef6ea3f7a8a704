package monitor

import (
	"sync"
	"testing"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/pwm"
)

func TestNewField(t *testing.T) {
	if f := NewField("OK"); f.String() != "OK                  " {
		t.Fatalf("NewField(OK) = %q", f)
	}
	long := "0123456789012345678901234"
	if f := NewField(long); f.String() != long[:FieldWidth] {
		t.Fatalf("NewField(long) = %q", f)
	}
	if len(DisabledMessage) != FieldWidth {
		t.Fatalf("DisabledMessage is %d bytes", len(DisabledMessage))
	}
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("cputemp", nil, WithTitle("CPU CORE TEMPERATURE"), WithPWM(pwm.FanHighOn))
	s := r.Snapshot()
	if s.Display.Upper.String() != "CPU CORE TEMPERATURE" {
		t.Fatalf("upper = %q", s.Display.Upper)
	}
	if s.Display.Lower != NewField("") {
		t.Fatalf("lower = %q", s.Display.Lower)
	}
	if s.PWM != pwm.FanHighOn {
		t.Fatalf("pwm = %v", s.PWM)
	}
	if !r.Enabled() || r.Name() != "cputemp" {
		t.Fatal("unexpected name or enabled flag")
	}
	if NewRecord("x", nil, WithEnabled(false)).Enabled() {
		t.Fatal("WithEnabled(false) ignored")
	}
}

func TestPublish(t *testing.T) {
	r := NewRecord("loadavg", nil, WithTitle("LOAD AVERAGE"))
	r.Publish(Status{Lower: "0.10 0.20 0.30", Warn: true, PWM: pwm.FanHighHyst})

	s := r.Snapshot()
	if s.Display.Upper.String() != NewField("LOAD AVERAGE").String() {
		t.Fatalf("upper changed without an upper text: %q", s.Display.Upper)
	}
	if s.Display.Lower.String() != NewField("0.10 0.20 0.30").String() {
		t.Fatalf("lower = %q", s.Display.Lower)
	}
	if s.Alerts.Warn != alert.SetReq || s.Alerts.Fail != alert.ClearAck {
		t.Fatalf("alerts = %+v", s.Alerts)
	}
	if s.PWM != pwm.FanHighHyst {
		t.Fatalf("pwm = %v", s.PWM)
	}

	r.Publish(Status{Upper: "NEW TITLE", Lower: "x"})
	s = r.Snapshot()
	if s.Display.Upper.String() != NewField("NEW TITLE").String() {
		t.Fatalf("upper = %q", s.Display.Upper)
	}
	// The unacknowledged set request is withdrawn.
	if s.Alerts.Warn != alert.ClearAck || s.PWM != 0 {
		t.Fatalf("second publish not reflected: %+v", s)
	}
}

func TestPublishDisks(t *testing.T) {
	r := NewRecord("hddtemp", testDisks())
	r.Publish(Status{Lower: "x", Disks: []bool{true, false, true}})

	s := r.Snapshot()
	// Ports 2, 3, 5 map to LEDs 0, 1, 3.
	want := [alert.NumDisks]alert.Cell{alert.SetReq, alert.ClearAck, alert.ClearAck, alert.SetReq, alert.ClearAck}
	if s.Alerts.Disks != want {
		t.Fatalf("disk cells = %v, want %v", s.Alerts.Disks, want)
	}

	r.Publish(Status{Lower: "y"}) // nil disks leave them alone
	if r.Snapshot().Alerts.Disks != want {
		t.Fatal("disk cells changed by a publish without disk results")
	}
}

func TestPublishShortDisksReleasesLock(t *testing.T) {
	r := NewRecord("hddtemp", testDisks())
	func() {
		defer func() { recover() }()
		r.Publish(Status{Disks: []bool{true}})
	}()
	// The lock must have been released by the panicking publish.
	r.Publish(Status{Lower: "ok"})
}

func TestPublishSequentialSameRecord(t *testing.T) {
	r := NewRecord("smart", testDisks())
	first := Status{Upper: "FIRST", Lower: "first", Warn: true, Disks: []bool{true, true, true}, PWM: pwm.FanMaxOn}
	second := Status{Upper: "SECOND", Lower: "second", Fail: true, Disks: []bool{false, false, false}, PWM: pwm.FanHighOn}
	r.Publish(first)
	r.Publish(second)

	s := r.Snapshot()
	if s.Display.Upper.String() != NewField("SECOND").String() || s.Display.Lower.String() != NewField("second").String() {
		t.Fatalf("display = %+v", s.Display)
	}
	if s.Alerts.Warn.Asserted() || !s.Alerts.Fail.Asserted() || s.PWM != pwm.FanHighOn {
		t.Fatalf("record mixes both publishes: %+v", s)
	}
	for i, c := range s.Alerts.Disks {
		if c.Asserted() {
			t.Fatalf("disk cell %d still asserted", i)
		}
	}
}

func TestPublishConcurrentRecords(t *testing.T) {
	disks := testDisks()
	a := NewRecord("hddtemp", disks)
	b := NewRecord("smart", disks)

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Go(func() {
			a.Publish(Status{Lower: "a", Disks: []bool{true, false, i%2 == 0}})
		})
		wg.Go(func() {
			b.Publish(Status{Lower: "b", Disks: []bool{false, true, true}})
		})
	}
	wg.Wait()

	sa, sb := a.Snapshot(), b.Snapshot()
	if !sa.Alerts.Disks[0].Asserted() || sa.Alerts.Disks[1].Asserted() {
		t.Fatalf("hddtemp cells = %v", sa.Alerts.Disks)
	}
	if sb.Alerts.Disks[0].Asserted() || !sb.Alerts.Disks[1].Asserted() || !sb.Alerts.Disks[3].Asserted() {
		t.Fatalf("smart cells = %v", sb.Alerts.Disks)
	}
}

func TestRecordFail(t *testing.T) {
	r := NewRecord("cputemp", nil)
	r.Publish(Status{Lower: "CORE0: 40  CORE1: 41"})
	r.Fail()

	s := r.Snapshot()
	if s.Alerts.Fail != alert.SetReq {
		t.Fatalf("fail cell = %v, want SET_REQ", s.Alerts.Fail)
	}
	if s.Display.Lower.String() != DisabledMessage {
		t.Fatalf("lower = %q", s.Display.Lower)
	}
	if !s.Failed {
		t.Fatal("record not marked failed")
	}
}

func TestVisit(t *testing.T) {
	r := NewRecord("loadavg", nil)
	r.Publish(Status{Lower: "1.00 1.00 1.00", Fail: true, PWM: pwm.FanMaxOn})

	var got Display
	var flags pwm.Flags
	err := r.Visit(func(d *Display, cells *alert.Cells, f pwm.Flags) error {
		got = *d
		flags = f
		cells.Fail = alert.SetAck
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Lower.String() != NewField("1.00 1.00 1.00").String() || flags != pwm.FanMaxOn {
		t.Fatalf("visit saw %q, %v", got.Lower, flags)
	}
	if r.Snapshot().Alerts.Fail != alert.SetAck {
		t.Fatal("acknowledgement not stored")
	}
}
