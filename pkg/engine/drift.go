package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/logger"
)

// driftMonitor polls the source of truth for out-of-band changes. Polls are
// single-flight: a tick that would overlap a running fetch is dropped, not
// queued. A fetched document replaces the snapshot only while the draft is
// clean; a dirty draft raises a conflict notification instead and the local
// edit survives.
type driftMonitor struct {
	engine *Engine
	log    *slog.Logger

	inFlight atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func newDriftMonitor(e *Engine) *driftMonitor {
	return &driftMonitor{
		engine: e,
		log:    logger.Get(logger.Drift),
	}
}

func (m *driftMonitor) Start(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel

	gen := m.engine.generation.Load()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, gen)
	}()
}

func (m *driftMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *driftMonitor) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.engine.driftInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, gen)
		}
	}
}

func (m *driftMonitor) tick(ctx context.Context, gen uint64) {
	e := m.engine
	e.stats.DriftTicks.Inc()

	if !m.inFlight.CompareAndSwap(false, true) {
		e.stats.DriftSkipped.Inc()
		m.log.Debug("Skipping drift tick, previous poll still in flight")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.inFlight.Store(false)
		m.poll(ctx, gen)
	}()
}

func (m *driftMonitor) poll(ctx context.Context, gen uint64) {
	e := m.engine

	ctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	doc, err := e.source.Get(ctx)
	if err != nil {
		m.log.Warn("Drift poll failed", "error", err)
		return
	}

	// Late result after Stop: drop it.
	if e.generation.Load() != gen {
		return
	}

	e.mu.Lock()
	if doc.Equal(e.snapshot) {
		e.mu.Unlock()
		return
	}

	dirty := !e.draft.Equal(e.snapshot)
	if dirty {
		e.mu.Unlock()
		e.stats.DriftConflicts.Inc()
		m.log.Warn("External change detected while draft is dirty")
		e.publish(events.TopicConfigConflict, events.ConflictEvent{Remote: doc.Copy()})
		return
	}

	e.commitSnapshotLocked(doc)
	e.validation = nil
	// The cancelled round below never completes normally, so restore the
	// informational flag here.
	if e.saveState == SaveStateValidating {
		e.saveState = SaveStateIdle
	}
	e.mu.Unlock()

	e.coordinator.CancelPending()
	e.stats.DriftAdopted.Inc()
	m.log.Info("Adopted external configuration change", "sections", doc.Sections())
}
