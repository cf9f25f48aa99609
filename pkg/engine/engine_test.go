package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/security"
	"github.com/sentinelhaus/confd/pkg/validator"
)

func baseDocument() document.Document {
	return document.Document{
		"mqtt": map[string]any{
			"host":        "broker.local",
			"broker_port": 1883,
		},
		"security": map[string]any{
			"pin": "1234",
		},
		"zones": []any{
			map[string]any{"name": "porch", "entry_delay": 30},
		},
	}
}

type fakeSource struct {
	mu     sync.Mutex
	doc    document.Document
	getErr error
	putErr error
	puts   int

	// when set, Put signals putStarted and then blocks until putRelease
	// closes or the context expires
	putStarted chan struct{}
	putRelease chan struct{}
}

func newFakeSource(doc document.Document) *fakeSource {
	return &fakeSource{doc: doc.Copy()}
}

func (s *fakeSource) Get(ctx context.Context) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.doc.Copy(), nil
}

func (s *fakeSource) Put(ctx context.Context, doc document.Document) error {
	s.mu.Lock()
	started := s.putStarted
	release := s.putRelease
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.doc = doc.Copy()
	s.puts++
	return nil
}

func (s *fakeSource) Close() error {
	return nil
}

func (s *fakeSource) setDocument(doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Copy()
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(topic string, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	event.Type = topic
	b.events = append(b.events, event)
}

func (b *recordingBus) Subscribe(topic string, handler events.Handler) events.Subscription {
	return noopSub{}
}

func (b *recordingBus) SubscribeAll(handler events.Handler) events.Subscription {
	return noopSub{}
}

func (b *recordingBus) Stats() events.Stats { return events.Stats{} }
func (b *recordingBus) Close() error        { return nil }

func (b *recordingBus) byTopic(topic string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.Type == topic {
			out = append(out, e)
		}
	}
	return out
}

type noopSub struct{}

func (noopSub) Unsubscribe() {}

type testEnv struct {
	engine   *Engine
	source   *fakeSource
	bus      *recordingBus
	security *security.Static
}

func newTestEnv(t *testing.T, v validator.Validator) *testEnv {
	t.Helper()

	src := newFakeSource(baseDocument())
	bus := &recordingBus{}
	sec := security.NewStatic(security.LevelHigh)

	if v == nil {
		v = validator.NewDefaultRegistry()
	}

	e := New(Options{
		Source:         src,
		Validator:      v,
		Security:       sec,
		Bus:            bus,
		DebounceWindow: 20 * time.Millisecond,
		DriftInterval:  time.Hour,
		RequestTimeout: 2 * time.Second,
	})

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	return &testEnv{engine: e, source: src, bus: bus, security: sec}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestLoadFailure(t *testing.T) {
	src := newFakeSource(baseDocument())
	src.getErr = errors.New("connection refused")
	bus := &recordingBus{}

	e := New(Options{
		Source:    src,
		Validator: validator.NewDefaultRegistry(),
		Security:  security.NewStatic(security.LevelHigh),
		Bus:       bus,
	})

	err := e.Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}

	if len(bus.byTopic(events.TopicConfigLoadFailed)) != 1 {
		t.Fatal("expected a load_failed notification")
	}

	// recoverable: a later load succeeds
	src.mu.Lock()
	src.getErr = nil
	src.mu.Unlock()
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("retry load failed: %v", err)
	}
	if e.Dirty() {
		t.Fatal("freshly loaded session should be clean")
	}
}

func TestApplyPatchUnknownSection(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.engine.ApplyPatch("cameras", map[string]any{"enabled": true})
	if !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if env.engine.Dirty() {
		t.Fatal("rejected patch must not dirty the draft")
	}
}

func TestApplyPatchMarksDirty(t *testing.T) {
	env := newTestEnv(t, nil)

	if env.engine.Dirty() {
		t.Fatal("new session should be clean")
	}

	err := env.engine.ApplyPatch("mqtt", map[string]any{"host": "broker.local", "broker_port": 8883})
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if !env.engine.Dirty() {
		t.Fatal("patched draft should be dirty")
	}

	// patching back to the snapshot value makes it clean again
	err = env.engine.ApplyPatch("mqtt", map[string]any{"host": "broker.local", "broker_port": 1883})
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if env.engine.Dirty() {
		t.Fatal("draft equal to snapshot should be clean")
	}
}

func TestResetRestoresSnapshot(t *testing.T) {
	env := newTestEnv(t, nil)

	patches := []struct {
		section string
		value   any
	}{
		{"mqtt", map[string]any{"host": "a", "broker_port": 1}},
		{"security", map[string]any{"pin": "9999"}},
		{"mqtt", map[string]any{"host": "b", "broker_port": 2}},
		{"zones", []any{}},
	}
	for _, p := range patches {
		if err := env.engine.ApplyPatch(p.section, p.value); err != nil {
			t.Fatalf("ApplyPatch(%s) failed: %v", p.section, err)
		}
	}

	if err := env.engine.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if !env.engine.Draft().Equal(env.engine.Snapshot()) {
		t.Fatal("after reset the draft must equal the snapshot")
	}
	if env.engine.Dirty() {
		t.Fatal("after reset the session must be clean")
	}
	if len(env.engine.Validation()) != 0 {
		t.Fatal("reset must clear validation findings")
	}
}

func TestPermissionGateBlocksMutations(t *testing.T) {
	env := newTestEnv(t, nil)
	env.security.Set(security.LevelLow)

	if env.engine.Editable() {
		t.Fatal("low level must not be editable")
	}

	err := env.engine.ApplyPatch("mqtt", map[string]any{"host": "x"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	err = env.engine.Save(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if got := len(env.bus.byTopic(events.TopicConfigPermissionDenied)); got != 2 {
		t.Fatalf("expected 2 permission_denied notifications, got %d", got)
	}
}

// Scenario: permission flips low -> medium mid-session and a previously
// denied save goes through.
func TestPermissionRecovery(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.engine.ApplyPatch("security", map[string]any{"pin": "4321"}); err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}

	env.security.Set(security.LevelLow)
	if err := env.engine.Save(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	env.security.Set(security.LevelMedium)
	if err := env.engine.Save(context.Background()); err != nil {
		t.Fatalf("save after permission recovery failed: %v", err)
	}

	if env.engine.Dirty() {
		t.Fatal("saved session should be clean")
	}
	if got := env.source.doc["security"].(map[string]any)["pin"]; got != "4321" {
		t.Fatalf("store not updated, pin = %v", got)
	}
}

func TestStopClearsSessionState(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.engine.ApplyPatch("mqtt", map[string]any{"host": ""}); err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return len(env.engine.Validation()) > 0
	})

	env.engine.Stop()

	if len(env.engine.Validation()) != 0 {
		t.Fatal("Stop must clear validation state")
	}
	if env.engine.SaveState() != SaveStateIdle {
		t.Fatal("Stop must reset save state to idle")
	}
}
