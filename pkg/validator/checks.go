package validator

import (
	"context"
	"fmt"
)

// NewDefaultRegistry returns a registry with the built-in checks for the
// known sections. Deployments pointing at a remote validation service skip
// this and wire a remote Validator instead.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("mqtt", CheckMQTT)
	r.Register("security", CheckSecurity)
	r.Register("zones", CheckZones)
	return r
}

func CheckMQTT(ctx context.Context, section string, value any, report *Report) error {
	m, ok := value.(map[string]any)
	if !ok {
		report.Errorf(section, "mqtt section must be a mapping")
		return nil
	}

	host, _ := m["host"].(string)
	if host == "" {
		report.Errorf(section+".host", "broker host must not be empty")
	}

	if raw, ok := m["broker_port"]; ok {
		port, ok := asInt(raw)
		if !ok || port < 1 || port > 65535 {
			report.Errorf(section+".broker_port", "broker port must be between 1 and 65535")
		}
	}

	if raw, ok := m["keepalive"]; ok {
		keepalive, ok := asInt(raw)
		if !ok || keepalive < 0 {
			report.Errorf(section+".keepalive", "keepalive must be a non-negative integer")
		} else if keepalive > 0 && keepalive < 5 {
			report.Warnf(section+".keepalive", "keepalive under 5s causes frequent reconnects")
		}
	}

	if raw, ok := m["tls"]; ok {
		if _, ok := raw.(bool); !ok {
			report.Errorf(section+".tls", "tls must be a boolean")
		}
	}

	return nil
}

func CheckSecurity(ctx context.Context, section string, value any, report *Report) error {
	m, ok := value.(map[string]any)
	if !ok {
		report.Errorf(section, "security section must be a mapping")
		return nil
	}

	if raw, ok := m["pin"]; ok {
		pin, ok := raw.(string)
		if !ok || len(pin) < 4 {
			report.Errorf(section+".pin", "pin must be a string of at least 4 characters")
		}
	}

	if raw, ok := m["allow_remote_arm"]; ok {
		if _, ok := raw.(bool); !ok {
			report.Errorf(section+".allow_remote_arm", "allow_remote_arm must be a boolean")
		}
	}

	return nil
}

func CheckZones(ctx context.Context, section string, value any, report *Report) error {
	list, ok := value.([]any)
	if !ok {
		report.Errorf(section, "zones section must be a sequence")
		return nil
	}

	seen := make(map[string]bool, len(list))
	for i, item := range list {
		zone, ok := item.(map[string]any)
		if !ok {
			report.Errorf(fmt.Sprintf("%s.%d", section, i), "zone must be a mapping")
			continue
		}

		name, _ := zone["name"].(string)
		if name == "" {
			report.Errorf(fmt.Sprintf("%s.%d.name", section, i), "zone name must not be empty")
		} else if seen[name] {
			report.Errorf(fmt.Sprintf("%s.%d.name", section, i), "duplicate zone name %q", name)
		}
		seen[name] = true

		if raw, ok := zone["entry_delay"]; ok {
			delay, ok := asInt(raw)
			if !ok || delay < 0 {
				report.Errorf(fmt.Sprintf("%s.%d.entry_delay", section, i), "entry_delay must be a non-negative integer")
			}
		}
	}

	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
