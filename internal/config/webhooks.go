package config

import (
	"slices"
	"time"

	"github.com/kahiteam/hwmond/internal/events"
)

// WebhookConfigs converts the [webhooks] tables, ordered by name. A webhook
// without an events list receives every alert and monitor event.
func (c *Config) WebhookConfigs() []events.WebhookConfig {
	names := make([]string, 0, len(c.Webhooks))
	for name := range c.Webhooks {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]events.WebhookConfig, 0, len(names))
	for _, name := range names {
		w := c.Webhooks[name]
		var types []events.EventType
		for _, s := range w.Events {
			if et, ok := events.ParseEventType(s); ok {
				types = append(types, et)
			}
		}
		if len(types) == 0 {
			types = []events.EventType{events.AlertRaised, events.AlertCleared, events.MonitorDisabled}
		}
		out = append(out, events.WebhookConfig{
			Name:          name,
			URL:           w.URL,
			Events:        types,
			Headers:       w.Headers,
			Timeout:       time.Duration(w.Timeout) * time.Second,
			MaxRetries:    w.Retries,
			Template:      w.Template,
			RoutingKey:    w.RoutingKey,
			AllowInsecure: w.AllowInsecure,
		})
	}
	return out
}
