// Package ctl implements the CLI client for querying a running hwmond over
// its HTTP endpoint.
package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"
)

// Client talks to the daemon's HTTP endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the daemon listening on addr.
func NewClient(addr string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "http://" + addr,
	}
}

// PageStatus is one panel page as reported by the daemon.
type PageStatus struct {
	Monitor  string `json:"monitor"`
	Upper    string `json:"upper"`
	Lower    string `json:"lower"`
	Warn     string `json:"warn"`
	Fail     string `json:"fail"`
	Disabled bool   `json:"disabled"`
}

// DaemonStatus is the JSON structure returned by /status.
type DaemonStatus struct {
	Fan   string       `json:"fan"`
	Pages []PageStatus `json:"pages"`
}

func (c *Client) getJSON(path string, v any) (int, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return 0, fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("invalid response: %w", err)
	}
	return resp.StatusCode, nil
}

// Fetch retrieves the daemon status.
func (c *Client) Fetch() (*DaemonStatus, error) {
	var st DaemonStatus
	code, err := c.getJSON("/status", &st)
	if err != nil {
		return nil, err
	}
	if code >= 400 {
		return nil, fmt.Errorf("status request failed: HTTP %d", code)
	}
	return &st, nil
}

// Status retrieves and formats the daemon status.
func (c *Client) Status(jsonOutput bool, w io.Writer) error {
	st, err := c.Fetch()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return formatStatusTable(st, w, isTerminal(w))
}

func formatStatusTable(st *DaemonStatus, w io.Writer, color bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MONITOR\tSTATE\tWARN\tFAIL\tDISPLAY\n")

	for _, p := range st.Pages {
		state := "OK"
		switch {
		case p.Disabled:
			state = "DISABLED"
		case isSet(p.Fail):
			state = "FAIL"
		case isSet(p.Warn):
			state = "WARN"
		}
		if color {
			state = colorState(state)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Monitor, state, p.Warn, p.Fail, p.Lower)
	}
	fmt.Fprintf(tw, "\nfan: %s\n", st.Fan)
	return tw.Flush()
}

func isSet(cell string) bool {
	return cell == "SET_REQ" || cell == "SET_ACK"
}

func colorState(state string) string {
	switch state {
	case "OK":
		return "\033[32m" + state + "\033[0m"
	case "FAIL", "DISABLED":
		return "\033[31m" + state + "\033[0m"
	case "WARN":
		return "\033[33m" + state + "\033[0m"
	default:
		return state
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Health checks daemon liveness.
func (c *Client) Health() (string, error) {
	var body map[string]string
	if _, err := c.getJSON("/healthz", &body); err != nil {
		return "", err
	}
	return body["status"], nil
}
