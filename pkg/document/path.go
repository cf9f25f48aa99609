package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a dotted field path such as "mqtt.broker_port" or
// "zones.0.name" against the document. Numeric segments index into sequences.
func (d Document) Lookup(path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	current, ok := d[segments[0]]
	if !ok {
		return nil, false
	}

	for _, seg := range segments[1:] {
		switch val := current.(type) {
		case map[string]any:
			current, ok = val[seg]
			if !ok {
				return nil, false
			}
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(val) {
				return nil, false
			}
			current = val[idx]
		default:
			return nil, false
		}
	}

	return current, true
}

// SetField returns a copy of the section value with the field at the dotted
// path (relative to the section root) replaced. An empty path replaces the
// whole section value. Intermediate mappings are created as needed; sequence
// indexes must already exist.
func SetField(section any, path string, value any) (any, error) {
	if path == "" {
		return CopyValue(value), nil
	}
	return setField(CopyValue(section), strings.Split(path, "."), path, value)
}

func setField(current any, segments []string, fullPath string, value any) (any, error) {
	seg := segments[0]
	last := len(segments) == 1

	switch val := current.(type) {
	case map[string]any:
		if last {
			val[seg] = CopyValue(value)
			return val, nil
		}
		child, ok := val[seg]
		if !ok || child == nil {
			child = map[string]any{}
		}
		updated, err := setField(child, segments[1:], fullPath, value)
		if err != nil {
			return nil, err
		}
		val[seg] = updated
		return val, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(val) {
			return nil, fmt.Errorf("invalid sequence index %q in path %s", seg, fullPath)
		}
		if last {
			val[idx] = CopyValue(value)
			return val, nil
		}
		updated, err := setField(val[idx], segments[1:], fullPath, value)
		if err != nil {
			return nil, err
		}
		val[idx] = updated
		return val, nil
	case nil:
		node := map[string]any{}
		return setField(node, segments, fullPath, value)
	default:
		return nil, fmt.Errorf("cannot descend into scalar at %q in path %s", seg, fullPath)
	}
}
