package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sentinelhaus/confd/pkg/document"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config-document.yaml")
	store := New(path)

	doc := document.Document{
		"mqtt": map[string]any{
			"host":        "broker.local",
			"broker_port": 1883,
		},
		"zones": []any{
			map[string]any{"name": "porch", "entry_delay": 30},
		},
	}

	if err := store.Put(context.Background(), doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !got.Equal(doc) {
		t.Fatalf("round trip mismatch:\nput %v\ngot %v", doc, got)
	}
}

func TestCancelledContextIsHonored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config-document.yaml")
	store := New(path)

	doc := document.Document{"mqtt": map[string]any{"host": "a"}}
	if err := store.Put(context.Background(), doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get with cancelled context should fail, got %v", err)
	}
	if err := store.Put(ctx, doc); !errors.Is(err, context.Canceled) {
		t.Fatalf("Put with cancelled context should fail, got %v", err)
	}

	// the earlier document is untouched
	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Equal(doc) {
		t.Fatal("cancelled Put must not modify the file")
	}
}

func TestGetMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := store.Get(context.Background()); err == nil {
		t.Fatal("expected an error for a missing document")
	}
}

func TestGetMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config-document.yaml")
	if err := os.WriteFile(path, []byte("mqtt: ["), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := New(path)
	if _, err := store.Get(context.Background()); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestExternalEditIsVisible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config-document.yaml")
	store := New(path)

	if err := store.Put(context.Background(), document.Document{"mqtt": map[string]any{"host": "a"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// another process rewrites the file out-of-band
	if err := os.WriteFile(path, []byte("mqtt:\n  host: b\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["mqtt"].(map[string]any)["host"] != "b" {
		t.Fatal("external edit not observed")
	}
}
