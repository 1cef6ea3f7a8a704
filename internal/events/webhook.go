package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// WebhookConfig describes a single webhook destination.
type WebhookConfig struct {
	Name          string
	URL           string
	Events        []EventType
	Headers       map[string]string
	Timeout       time.Duration
	MaxRetries    int
	Template      string // "generic", "slack", "pagerduty"
	RoutingKey    string // pagerduty integration key
	AllowInsecure bool
	Backoff       time.Duration // first retry delay, doubled per attempt
}

// WebhookManager subscribes to events and delivers HTTP POST notifications.
type WebhookManager struct {
	bus    *Bus
	logger *slog.Logger
	hooks  []webhookEntry
	client *http.Client
	mu     sync.Mutex
	subIDs []uint64
}

type webhookEntry struct {
	cfg      WebhookConfig
	failures int
	tripped  bool // circuit breaker open
}

// NewWebhookManager creates a webhook manager and subscribes to events.
func NewWebhookManager(bus *Bus, configs []WebhookConfig, logger *slog.Logger) *WebhookManager {
	wm := &WebhookManager{
		bus:    bus,
		logger: logger,
		client: &http.Client{},
	}

	for _, cfg := range configs {
		if cfg.Timeout == 0 {
			cfg.Timeout = 5 * time.Second
		}
		if cfg.MaxRetries == 0 {
			cfg.MaxRetries = 3
		}
		if cfg.Template == "" {
			cfg.Template = "generic"
		}
		if cfg.Backoff == 0 {
			cfg.Backoff = time.Second
		}
		wm.hooks = append(wm.hooks, webhookEntry{cfg: cfg})
	}

	wm.subscribe()
	return wm
}

func (wm *WebhookManager) subscribe() {
	// Collect all unique event types across hooks.
	seen := make(map[EventType]bool)
	for _, h := range wm.hooks {
		for _, et := range h.cfg.Events {
			seen[et] = true
		}
	}

	for et := range seen {
		id := wm.bus.Subscribe(et, func(e Event) {
			wm.dispatch(e)
		})
		wm.subIDs = append(wm.subIDs, id)
	}
}

// Stop unsubscribes from all events.
func (wm *WebhookManager) Stop() {
	for _, id := range wm.subIDs {
		wm.bus.Unsubscribe(id)
	}
}

func (wm *WebhookManager) dispatch(e Event) {
	for i := range wm.hooks {
		h := &wm.hooks[i]
		if !h.matchesEvent(e.Type) {
			continue
		}
		// Deliver asynchronously to avoid blocking the event bus.
		go wm.deliver(h, e)
	}
}

func (h *webhookEntry) matchesEvent(et EventType) bool {
	for _, t := range h.cfg.Events {
		if t == et {
			return true
		}
	}
	return false
}

func (wm *WebhookManager) deliver(h *webhookEntry, e Event) {
	wm.mu.Lock()
	if h.tripped {
		wm.mu.Unlock()
		return
	}
	wm.mu.Unlock()

	payload := buildPayload(h.cfg, e)

	var lastErr error
	for attempt := range h.cfg.MaxRetries {
		if attempt > 0 {
			delay := h.cfg.Backoff << uint(attempt-1)
			time.Sleep(delay)
		}

		if err := wm.sendHTTP(h, payload); err != nil {
			lastErr = err
			continue
		}

		// Success: reset failures.
		wm.mu.Lock()
		h.failures = 0
		wm.mu.Unlock()
		return
	}

	// All retries exhausted.
	wm.mu.Lock()
	h.failures++
	if h.failures >= 5 {
		h.tripped = true
		wm.logger.Warn("webhook circuit breaker tripped",
			"name", h.cfg.Name, "url", h.cfg.URL)
	}
	wm.mu.Unlock()

	wm.logger.Error("webhook delivery failed",
		"name", h.cfg.Name,
		"url", h.cfg.URL,
		"error", lastErr,
	)
}

func (wm *WebhookManager) sendHTTP(h *webhookEntry, payload []byte) error {
	client := &http.Client{Timeout: h.cfg.Timeout}

	req, err := http.NewRequest("POST", h.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hwmond-webhook/1.0")

	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// buildPayload generates the JSON body based on the hook's template.
func buildPayload(cfg WebhookConfig, e Event) []byte {
	var payload any

	switch cfg.Template {
	case "slack":
		text := fmt.Sprintf("[%s] %s", e.Type, formatEventData(e.Data))
		payload = map[string]string{"text": text}

	case "pagerduty":
		payload = map[string]any{
			"routing_key":  cfg.RoutingKey,
			"event_action": pagerDutyAction(e.Type),
			"dedup_key":    e.Data["led"],
			"payload": map[string]any{
				"summary":   fmt.Sprintf("%s: %s", e.Type, formatEventData(e.Data)),
				"source":    hostname(),
				"severity":  pagerDutySeverity(e.Type),
				"timestamp": e.Timestamp.Format(time.RFC3339),
			},
		}

	default: // "generic"
		payload = map[string]any{
			"event":     string(e.Type),
			"timestamp": e.Timestamp.Format(time.RFC3339),
			"monitor":   e.Data["monitor"],
			"indicator": e.Data["indicator"],
			"details":   e.Data,
		}
	}

	data, _ := json.Marshal(payload)
	return data
}

func formatEventData(data map[string]string) string {
	parts := make([]string, 0, len(data))
	for _, k := range slices.Sorted(maps.Keys(data)) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func pagerDutySeverity(et EventType) string {
	switch et {
	case AlertRaised:
		return "critical"
	case MonitorDisabled:
		return "error"
	case FanSpeedChanged:
		return "warning"
	default:
		return "info"
	}
}

// pagerDutyAction resolves the incident opened by a raised alert when the
// alert clears.
func pagerDutyAction(et EventType) string {
	if et == AlertCleared {
		return "resolve"
	}
	return "trigger"
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "hwmond"
	}
	return h
}

// ValidateWebhookURL checks that a URL is valid and uses HTTPS
// unless allow_insecure is set or it's a localhost URL.
func ValidateWebhookURL(rawURL string, allowInsecure bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid webhook URL format: %s", rawURL)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		isLocal := host == "localhost" || host == "127.0.0.1" || host == "::1"
		if !isLocal && !allowInsecure {
			return fmt.Errorf("webhook URL must use HTTPS: %s (set allow_insecure=true to override)", rawURL)
		}
	}

	return nil
}
