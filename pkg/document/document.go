// Package document holds the configuration document model shared by the
// engine and its collaborators. A document is a fixed set of named sections
// whose values are opaque YAML-shaped structures; the engine never interprets
// section contents, it only copies, compares and patches them.
package document

import (
	"reflect"
	"sort"
)

type Document map[string]any

// Copy returns a structurally independent copy of the document. Mutating the
// copy never affects the original.
func (d Document) Copy() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for section, value := range d {
		out[section] = CopyValue(value)
	}
	return out
}

// Equal reports structural equality of two documents.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for section, value := range d {
		ov, ok := other[section]
		if !ok || !reflect.DeepEqual(value, ov) {
			return false
		}
	}
	return true
}

func (d Document) HasSection(name string) bool {
	_, ok := d[name]
	return ok
}

func (d Document) Sections() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CopyValue deep-copies a YAML-shaped value (nested maps, sequences and
// scalars). Unknown concrete types are returned as-is; section values decoded
// from YAML or JSON never contain them.
func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CopyValue(item)
		}
		return out
	default:
		return v
	}
}
