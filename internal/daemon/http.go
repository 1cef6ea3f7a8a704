package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kahiteam/hwmond/internal/metrics"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/pwm"
	"github.com/kahiteam/hwmond/internal/web"
)

// statusSource is what the HTTP endpoints read from the daemon.
type statusSource interface {
	Metrics() *metrics.Collector
	Snapshots() []monitor.Snapshot
	FanState() pwm.State
	IsShuttingDown() bool
}

// PageStatus is the JSON form of one record.
type PageStatus struct {
	Monitor  string `json:"monitor"`
	Upper    string `json:"upper"`
	Lower    string `json:"lower"`
	Warn     string `json:"warn"`
	Fail     string `json:"fail"`
	Disabled bool   `json:"disabled"`
}

// metricsServer serves /metrics, /healthz, /status and the web view over
// TCP.
type metricsServer struct {
	src    statusSource
	web    *web.Handler
	logger *slog.Logger
	ln     net.Listener
	srv    *http.Server
}

// newMetricsServer creates the server. The web view reloads every refresh
// seconds.
func newMetricsServer(src statusSource, refresh int, logger *slog.Logger) (*metricsServer, error) {
	logger = logger.With("component", "http")
	h, err := web.NewHandler(src, refresh, logger)
	if err != nil {
		return nil, err
	}
	return &metricsServer{src: src, web: h, logger: logger}, nil
}

func (s *metricsServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	s.web.RegisterRoutes(mux)
	mux.Handle("GET /metrics", s.src.Metrics().Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /status", s.handleStatus)
	return mux
}

// Start binds addr and serves in the background.
func (s *metricsServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot bind %s: %w", addr, err)
	}

	s.ln = ln
	s.srv = &http.Server{Handler: s.mux(), ReadHeaderTimeout: 10 * time.Second}

	host, _, _ := net.SplitHostPort(addr)
	if host == "0.0.0.0" || host == "" || host == "::" {
		s.logger.Warn("HTTP server bound to all interfaces", "addr", addr)
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or empty if not started.
func (s *metricsServer) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return ""
}

// Stop gracefully shuts the server down.
func (s *metricsServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *metricsServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.src.IsShuttingDown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "shutting_down",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *metricsServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	snaps := s.src.Snapshots()
	pages := make([]PageStatus, 0, len(snaps))
	for _, snap := range snaps {
		pages = append(pages, PageStatus{
			Monitor:  snap.Name,
			Upper:    strings.TrimRight(snap.Display.Upper.String(), " "),
			Lower:    strings.TrimRight(snap.Display.Lower.String(), " "),
			Warn:     snap.Alerts.Warn.String(),
			Fail:     snap.Alerts.Fail.String(),
			Disabled: snap.Failed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fan":   s.src.FanState().String(),
		"pages": pages,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
