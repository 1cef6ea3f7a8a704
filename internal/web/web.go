// Package web serves a read-only HTML view of the front panel: every page
// the daemon cycles through, its alert indicators and the fan state.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kahiteam/hwmond/internal/alert"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/pwm"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageView is the template data for a single panel page.
type PageView struct {
	Monitor string
	Upper   string
	Lower   string
	Warn    string
	Fail    string
	Disks   []string
	State   string // ok, warn, fail or disabled
}

// IndexData is the template data for the index page.
type IndexData struct {
	Pages   []PageView
	Fan     string
	Refresh int
}

// Source provides the panel pages for the web view.
type Source interface {
	Snapshots() []monitor.Snapshot
	FanState() pwm.State
}

// Handler serves the web view.
type Handler struct {
	src       Source
	refresh   int
	templates *template.Template
	logger    *slog.Logger
}

// NewHandler creates a web view handler. The page reloads itself every
// refresh seconds; zero disables reloading.
func NewHandler(src Source, refresh int, logger *slog.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("cannot parse templates: %w", err)
	}
	return &Handler{
		src:       src,
		refresh:   refresh,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// RegisterRoutes adds the web view routes to the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := IndexData{
		Pages:   Views(h.src.Snapshots()),
		Fan:     h.src.FanState().String(),
		Refresh: h.refresh,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error("template render error", "error", err)
	}
}

// Views converts snapshots to template data.
func Views(snaps []monitor.Snapshot) []PageView {
	views := make([]PageView, 0, len(snaps))
	for _, s := range snaps {
		v := PageView{
			Monitor: s.Name,
			Upper:   strings.TrimRight(s.Display.Upper.String(), " "),
			Lower:   strings.TrimRight(s.Display.Lower.String(), " "),
			Warn:    s.Alerts.Warn.String(),
			Fail:    s.Alerts.Fail.String(),
			State:   state(s),
		}
		for _, c := range s.Alerts.Disks {
			v.Disks = append(v.Disks, stateClass(c))
		}
		views = append(views, v)
	}
	return views
}

func state(s monitor.Snapshot) string {
	switch {
	case s.Failed:
		return "disabled"
	case isSet(s.Alerts.Fail):
		return "fail"
	case isSet(s.Alerts.Warn):
		return "warn"
	}
	return "ok"
}

func isSet(c alert.Cell) bool {
	return c == alert.SetReq || c == alert.SetAck
}

// stateClass is the CSS class of a disk indicator.
func stateClass(c alert.Cell) string {
	if isSet(c) {
		return "on"
	}
	return "off"
}
