package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandContext holds variables available for expansion.
type ExpandContext struct {
	Here string // directory of the config file
}

// ExpandVariables expands %(here)s and ${ENV} references in the path-like
// and credential string fields of a config, given the config file path.
func ExpandVariables(cfg *Config, configPath string) error {
	ctx := ExpandContext{
		Here: filepath.Dir(configPath),
	}

	fields := []struct {
		name string
		ptr  *string
	}{
		{"daemon.pidfile", &cfg.Daemon.Pidfile},
		{"daemon.log_file", &cfg.Daemon.LogFile},
		{"daemon.panel_device", &cfg.Daemon.PanelDevice},
		{"daemon.metrics_listen", &cfg.Daemon.MetricsListen},
		{"alerts.led_dir", &cfg.Alerts.LEDDir},
		{"pwm.file", &cfg.PWM.File},
		{"monitors.loadavg.path", &cfg.Monitors.LoadAvg.Path},
		{"monitors.hddtemp.command", &cfg.Monitors.HDDTemp.Command},
		{"monitors.smart.command", &cfg.Monitors.Smart.Command},
		{"monitors.raid.mdstat", &cfg.Monitors.RAID.Mdstat},
		{"monitors.raid.mdadm_conf", &cfg.Monitors.RAID.MdadmConf},
		{"monitors.raid.sysfs_dir", &cfg.Monitors.RAID.SysfsDir},
		{"monitors.raid.command", &cfg.Monitors.RAID.Command},
	}
	for _, f := range fields {
		v, err := expandString(*f.ptr, ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = v
	}

	for i, in := range cfg.Monitors.CPUTemp.Inputs {
		v, err := expandString(in, ctx)
		if err != nil {
			return fmt.Errorf("monitors.cputemp.inputs[%d]: %w", i, err)
		}
		cfg.Monitors.CPUTemp.Inputs[i] = v
	}

	// Expand webhook fields.
	var err error
	for name, w := range cfg.Webhooks {
		w.URL, err = expandString(w.URL, ctx)
		if err != nil {
			return fmt.Errorf("webhooks.%s.url: %w", name, err)
		}
		w.RoutingKey, err = expandString(w.RoutingKey, ctx)
		if err != nil {
			return fmt.Errorf("webhooks.%s.routing_key: %w", name, err)
		}
		for k, v := range w.Headers {
			expanded, err := expandString(v, ctx)
			if err != nil {
				return fmt.Errorf("webhooks.%s.headers.%s: %w", name, k, err)
			}
			w.Headers[k] = expanded
		}
		cfg.Webhooks[name] = w
	}

	return nil
}

// expandString expands all template variables and env references in a single string.
func expandString(s string, ctx ExpandContext) (string, error) {
	if s == "" {
		return s, nil
	}

	// Phase 1: Expand %(variable)s and %(variable)d patterns.
	result, err := expandTemplateVars(s, ctx)
	if err != nil {
		return "", err
	}

	// Phase 2: Expand ${ENV_VAR} references.
	result, err = expandEnvVars(result)
	if err != nil {
		return "", err
	}

	// Phase 3: Unescape %% -> % and $$ -> $.
	result = strings.ReplaceAll(result, "%%", "%")
	result = strings.ReplaceAll(result, "$$", "$")

	return result, nil
}

func expandTemplateVars(s string, ctx ExpandContext) (string, error) {
	var result strings.Builder
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '%' && s[i+1] == '%' {
			// Escaped percent, preserve for later unescaping.
			result.WriteString("%%")
			i += 2
			continue
		}

		if i+1 < len(s) && s[i] == '%' && s[i+1] == '(' {
			end := strings.Index(s[i:], ")s")
			if end < 0 {
				return "", fmt.Errorf("unclosed template variable at position %d in %q", i, s)
			}
			varName := s[i+2 : i+end]
			advance := end + 2

			val, err := resolveTemplateVar(varName, ctx)
			if err != nil {
				return "", err
			}
			result.WriteString(val)
			i += advance
			continue
		}

		result.WriteByte(s[i])
		i++
	}

	return result.String(), nil
}

func resolveTemplateVar(name string, ctx ExpandContext) (string, error) {
	switch name {
	case "here":
		return ctx.Here, nil
	default:
		return "", fmt.Errorf("unknown template variable: %%(%s)s", name)
	}
}

func expandEnvVars(s string) (string, error) {
	var result strings.Builder
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '$' && s[i+1] == '$' {
			// Escaped dollar, preserve for later unescaping.
			result.WriteString("$$")
			i += 2
			continue
		}

		if i+1 < len(s) && s[i] == '$' && s[i+1] == '{' {
			end := strings.Index(s[i:], "}")
			if end < 0 {
				return "", fmt.Errorf("unclosed environment variable reference at position %d in %q", i, s)
			}

			varName := s[i+2 : i+end]
			val, ok := os.LookupEnv(varName)
			if !ok {
				return "", fmt.Errorf("undefined environment variable: ${%s}", varName)
			}
			result.WriteString(val)
			i += end + 1
			continue
		}

		result.WriteByte(s[i])
		i++
	}

	return result.String(), nil
}
