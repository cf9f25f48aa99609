// Package engine implements the configuration reconciliation engine: an
// authoritative snapshot and an editable draft of a multi-section document,
// debounced asynchronous validation, drift polling against the source of
// truth, and a commit controller that saves only when permission and
// validation allow it.
//
// One Engine owns one editing session. All state transitions happen under a
// single mutex; goroutines exist only for the debounce timer, the drift
// ticker and in-flight collaborator calls, and a generation token turns late
// results into no-ops after Stop.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/logger"
	"github.com/sentinelhaus/confd/pkg/security"
	"github.com/sentinelhaus/confd/pkg/source"
	"github.com/sentinelhaus/confd/pkg/validator"
)

const (
	DefaultDebounceWindow = 750 * time.Millisecond
	DefaultDriftInterval  = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

type Options struct {
	Source    source.Store
	Validator validator.Validator
	Security  security.Provider
	Bus       events.Bus

	DebounceWindow time.Duration
	DriftInterval  time.Duration
	RequestTimeout time.Duration

	// Registerer for engine metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
}

type Engine struct {
	source source.Store
	gate   *Gate
	bus    events.Bus
	stats  *Stats
	log    *slog.Logger

	debounceWindow time.Duration
	driftInterval  time.Duration
	requestTimeout time.Duration

	// generation invalidates in-flight validation and drift results after
	// Stop; late arrivals compare against it and bail out.
	generation atomic.Uint64

	mu         sync.Mutex
	snapshot   document.Document
	draft      document.Document
	validation ValidationResult
	saveState  SaveState

	coordinator *coordinator
	drift       *driftMonitor
}

func New(opts Options) *Engine {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.DriftInterval <= 0 {
		opts.DriftInterval = DefaultDriftInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	e := &Engine{
		source:         opts.Source,
		gate:           NewGate(opts.Security),
		bus:            opts.Bus,
		stats:          NewStats(opts.Registerer),
		log:            logger.Get(logger.Engine),
		debounceWindow: opts.DebounceWindow,
		driftInterval:  opts.DriftInterval,
		requestTimeout: opts.RequestTimeout,
		saveState:      SaveStateIdle,
	}
	e.coordinator = newCoordinator(e, opts.Validator)
	e.drift = newDriftMonitor(e)

	return e
}

// Load fetches the authoritative document and resets the session to it.
// On failure nothing changes and the caller may retry.
func (e *Engine) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	doc, err := e.source.Get(ctx)
	if err != nil {
		e.log.Error("Failed to load configuration", "error", err)
		e.publish(events.TopicConfigLoadFailed, events.LoadFailedEvent{Message: err.Error()})
		return &LoadError{Err: err}
	}

	e.mu.Lock()
	e.snapshot = doc.Copy()
	e.draft = doc.Copy()
	e.validation = nil
	e.saveState = SaveStateIdle
	e.mu.Unlock()

	e.log.Info("Configuration loaded", "sections", doc.Sections())
	return nil
}

// ApplyPatch replaces one section of the draft and schedules a debounced
// validation round for the new draft. The section key set is fixed by the
// loaded document.
func (e *Engine) ApplyPatch(section string, value any) error {
	if !e.gate.Editable() {
		e.denyPermission("apply_patch")
		return ErrPermissionDenied
	}

	e.mu.Lock()
	if e.snapshot == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if !e.draft.HasSection(section) {
		e.mu.Unlock()
		return ErrUnknownSection
	}
	e.draft[section] = document.CopyValue(value)
	draft := e.draft.Copy()
	e.mu.Unlock()

	e.stats.PatchesApplied.Inc()
	e.coordinator.Submit(draft)
	return nil
}

// Reset discards the draft in favor of the snapshot and clears validation
// state, including any pending debounced round. Only an in-flight save makes
// it refuse.
func (e *Engine) Reset() error {
	e.mu.Lock()
	if e.saveState == SaveStateSaving {
		e.mu.Unlock()
		return ErrBusy
	}
	if e.snapshot == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	e.draft = e.snapshot.Copy()
	e.validation = nil
	e.saveState = SaveStateIdle
	e.mu.Unlock()

	e.coordinator.CancelPending()
	return nil
}

// commitSnapshotLocked replaces the snapshot; the draft follows only when it
// had no local edits at the moment of replacement. Callers hold e.mu.
func (e *Engine) commitSnapshotLocked(doc document.Document) {
	wasDirty := !e.draft.Equal(e.snapshot)
	e.snapshot = doc.Copy()
	if !wasDirty {
		e.draft = doc.Copy()
	}
}

// Start begins drift polling. Load must have succeeded first.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.snapshot != nil
	e.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}

	e.drift.Start(ctx)
	return nil
}

// Stop tears the session down: the drift ticker is cancelled, the pending
// debounce is dropped, and the generation bump silences any in-flight
// validation or drift result that arrives later.
func (e *Engine) Stop() {
	e.generation.Add(1)
	e.coordinator.CancelPending()
	e.drift.Stop()

	e.mu.Lock()
	e.validation = nil
	e.saveState = SaveStateIdle
	e.mu.Unlock()
}

func (e *Engine) Snapshot() document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Copy()
}

func (e *Engine) Draft() document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Copy()
}

// Dirty reports whether the draft structurally differs from the snapshot.
// Always recomputed, never cached.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.draft.Equal(e.snapshot)
}

func (e *Engine) Validation() ValidationResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validation.Copy()
}

func (e *Engine) SaveState() SaveState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveState
}

func (e *Engine) Editable() bool {
	return e.gate.Editable()
}

func (e *Engine) Stats() *Stats {
	return e.stats
}

func (e *Engine) denyPermission(operation string) {
	e.log.Warn("Mutation denied by permission gate", "operation", operation, "level", e.gate.Level())
	e.publish(events.TopicConfigPermissionDenied, events.PermissionDeniedEvent{Operation: operation})
}

func (e *Engine) publish(topic string, data any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(topic, events.Event{Source: "engine", Data: data})
}
