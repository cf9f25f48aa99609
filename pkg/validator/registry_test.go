package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelhaus/confd/pkg/document"
)

func TestRegistryRunsChecksPerSection(t *testing.T) {
	r := NewRegistry()
	r.Register("mqtt", func(ctx context.Context, section string, value any, report *Report) error {
		report.Errorf(section+".host", "bad host")
		return nil
	})
	r.Register("mqtt", func(ctx context.Context, section string, value any, report *Report) error {
		report.Warnf(section+".keepalive", "short keepalive")
		return nil
	})

	doc := document.Document{
		"mqtt":  map[string]any{},
		"zones": []any{},
	}

	report, err := r.Validate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "bad host", report.Errors["mqtt.host"])
	assert.Equal(t, "short keepalive", report.Warnings["mqtt.keepalive"])
}

func TestRegistryPropagatesCheckFailure(t *testing.T) {
	r := NewRegistry()
	r.Register("mqtt", func(ctx context.Context, section string, value any, report *Report) error {
		return errors.New("backend unreachable")
	})

	_, err := r.Validate(context.Background(), document.Document{"mqtt": map[string]any{}})
	require.Error(t, err)
}

func TestRegistryHonorsContextCancellation(t *testing.T) {
	r := NewRegistry()
	r.Register("mqtt", func(ctx context.Context, section string, value any, report *Report) error {
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Validate(ctx, document.Document{"mqtt": map[string]any{}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultChecks(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name       string
		doc        document.Document
		wantErrors []string
		wantWarns  []string
	}{
		{
			name: "valid document",
			doc: document.Document{
				"mqtt":     map[string]any{"host": "broker.local", "broker_port": 1883, "tls": true},
				"security": map[string]any{"pin": "1234", "allow_remote_arm": false},
				"zones":    []any{map[string]any{"name": "porch", "entry_delay": 30}},
			},
		},
		{
			name: "port out of range",
			doc: document.Document{
				"mqtt": map[string]any{"host": "broker.local", "broker_port": 99999},
			},
			wantErrors: []string{"mqtt.broker_port"},
		},
		{
			name: "empty host and short pin",
			doc: document.Document{
				"mqtt":     map[string]any{"host": ""},
				"security": map[string]any{"pin": "12"},
			},
			wantErrors: []string{"mqtt.host", "security.pin"},
		},
		{
			name: "short keepalive warns",
			doc: document.Document{
				"mqtt": map[string]any{"host": "broker.local", "keepalive": 2},
			},
			wantWarns: []string{"mqtt.keepalive"},
		},
		{
			name: "duplicate zone names",
			doc: document.Document{
				"zones": []any{
					map[string]any{"name": "porch"},
					map[string]any{"name": "porch"},
				},
			},
			wantErrors: []string{"zones.1.name"},
		},
		{
			name: "wrong section shapes",
			doc: document.Document{
				"mqtt":  []any{},
				"zones": map[string]any{},
			},
			wantErrors: []string{"mqtt", "zones"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := r.Validate(context.Background(), tt.doc)
			require.NoError(t, err)

			assert.Len(t, report.Errors, len(tt.wantErrors))
			for _, path := range tt.wantErrors {
				assert.Contains(t, report.Errors, path)
			}
			for _, path := range tt.wantWarns {
				assert.Contains(t, report.Warnings, path)
			}
		})
	}
}
