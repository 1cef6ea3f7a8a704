package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/pwm"
)

type mockSource struct {
	records []*monitor.Record
	fan     pwm.State
}

func (m *mockSource) Snapshots() []monitor.Snapshot {
	var out []monitor.Snapshot
	for _, r := range m.records {
		out = append(out, r.Snapshot())
	}
	return out
}

func (m *mockSource) FanState() pwm.State { return m.fan }

func testDisks(t *testing.T) monitor.DiskTable {
	t.Helper()
	disks := monitor.DiskTable{
		{Device: "/dev/sdb", Letter: 'b', Port: 2},
		{Device: "/dev/sdc", Letter: 'c', Port: 3},
	}
	if err := disks.Validate(); err != nil {
		t.Fatal(err)
	}
	return disks
}

func newTestHandler(t *testing.T, src Source, refresh int) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHandler(src, refresh, logger)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestIndexPage(t *testing.T) {
	hot := monitor.NewRecord("hddtemp", testDisks(t), monitor.WithTitle("HDD TEMPERATURE"))
	hot.Publish(monitor.Status{Lower: "55  30", Fail: true, Disks: []bool{true, false}})
	src := &mockSource{records: []*monitor.Record{hot}, fan: pwm.High}

	w := serve(newTestHandler(t, src, 3), "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"fan HIGH",
		`class="page state-fail" id="page-hddtemp"`,
		"HDD TEMPERATURE",
		"55  30",
		"fail SET_REQ",
		`<span class="on"></span>`,
		`http-equiv="refresh" content="3"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestIndexNoRefresh(t *testing.T) {
	w := serve(newTestHandler(t, &mockSource{}, 0), "/")
	if strings.Contains(w.Body.String(), "http-equiv") {
		t.Error("refresh tag should be absent")
	}
}

func TestUnknownPath(t *testing.T) {
	w := serve(newTestHandler(t, &mockSource{}, 0), "/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestViews(t *testing.T) {
	ok := monitor.NewRecord("loadavg", nil, monitor.WithTitle("LOAD AVERAGE"))
	ok.Publish(monitor.Status{Lower: "0.10 0.20 0.30"})
	warn := monitor.NewRecord("cputemp", nil)
	warn.Publish(monitor.Status{Warn: true})
	dead := monitor.NewRecord("smart", nil)
	dead.Fail()

	views := Views([]monitor.Snapshot{ok.Snapshot(), warn.Snapshot(), dead.Snapshot()})
	want := []string{"ok", "warn", "disabled"}
	for i, v := range views {
		if v.State != want[i] {
			t.Errorf("%s state = %s, want %s", v.Monitor, v.State, want[i])
		}
	}
	if views[0].Upper != "LOAD AVERAGE" || views[0].Lower != "0.10 0.20 0.30" {
		t.Errorf("loadavg view = %+v", views[0])
	}
	if len(views[0].Disks) != 5 {
		t.Errorf("disk indicators = %d, want 5", len(views[0].Disks))
	}
}
