package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kahiteam/hwmond/internal/metrics"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/panel"
	"github.com/kahiteam/hwmond/internal/pwm"
)

type fakeSource struct {
	collector *metrics.Collector
	records   []*monitor.Record
	shutting  bool
}

func (f *fakeSource) Metrics() *metrics.Collector { return f.collector }
func (f *fakeSource) FanState() pwm.State         { return pwm.High }
func (f *fakeSource) IsShuttingDown() bool        { return f.shutting }

func (f *fakeSource) Snapshots() []monitor.Snapshot {
	var out []monitor.Snapshot
	for _, r := range f.records {
		out = append(out, r.Snapshot())
	}
	return out
}

func testSource() *fakeSource {
	smart := monitor.NewRecord("smart", nil, monitor.WithTitle("DISK HEALTH"))
	smart.Fail()
	return &fakeSource{
		collector: metrics.New(),
		records:   []*monitor.Record{panel.Logo(), smart},
	}
}

func newTestServer(t *testing.T, src statusSource) *metricsServer {
	t.Helper()
	s, err := newMetricsServer(src, 3, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t, testSource())
	w := httptest.NewRecorder()
	s.mux().ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Fan   string       `json:"fan"`
		Pages []PageStatus `json:"pages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Fan != "HIGH" {
		t.Errorf("fan = %q, want HIGH", body.Fan)
	}
	if len(body.Pages) != 2 {
		t.Fatalf("pages = %d", len(body.Pages))
	}
	smart := body.Pages[1]
	if !smart.Disabled || smart.Lower != monitor.DisabledMessage || smart.Fail != "SET_REQ" {
		t.Errorf("smart page = %+v", smart)
	}
	if body.Pages[0].Lower != "Free Your NAS!" {
		t.Errorf("logo lower = %q", body.Pages[0].Lower)
	}
}

func TestHealthzShuttingDown(t *testing.T) {
	src := testSource()
	src.shutting = true
	s := newTestServer(t, src)

	w := httptest.NewRecorder()
	s.mux().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestMetricsServerStartStop(t *testing.T) {
	s := newTestServer(t, testSource())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
	if err := s.Stop(t.Context()); err != nil {
		t.Fatal(err)
	}
}

func TestMetricsServerBindError(t *testing.T) {
	s := newTestServer(t, testSource())
	if err := s.Start("256.0.0.1:0"); err == nil {
		t.Fatal("expected bind error")
	}
}

func TestWebView(t *testing.T) {
	s := newTestServer(t, testSource())
	w := httptest.NewRecorder()
	s.mux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"fan HIGH", "Free Your NAS!", "state-disabled"} {
		if !strings.Contains(body, want) {
			t.Errorf("web view missing %q", want)
		}
	}
}
