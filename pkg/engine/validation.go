package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/logger"
	"github.com/sentinelhaus/confd/pkg/validator"
)

// coordinator debounces draft changes into validation rounds. Every Submit
// takes the next sequence number and restarts the window, so a burst of edits
// produces at most one in-flight request. A result applies only while its
// sequence is still the latest; a slow early request can never clobber a
// later one, regardless of arrival order.
type coordinator struct {
	engine    *Engine
	validator validator.Validator
	log       *slog.Logger

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

func newCoordinator(e *Engine, v validator.Validator) *coordinator {
	return &coordinator{
		engine:    e,
		validator: v,
		log:       logger.Get(logger.Validation),
	}
}

func (c *coordinator) Submit(draft document.Document) {
	gen := c.engine.generation.Load()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.engine.debounceWindow, func() {
		c.run(gen, seq, draft)
	})
	c.mu.Unlock()
}

// CancelPending drops the scheduled round and bumps the sequence so any round
// already in flight lands stale.
func (c *coordinator) CancelPending() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.mu.Unlock()
}

func (c *coordinator) isLatest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

func (c *coordinator) run(gen, seq uint64, draft document.Document) {
	e := c.engine
	if e.generation.Load() != gen || !c.isLatest(seq) {
		return
	}

	e.mu.Lock()
	if e.saveState == SaveStateIdle {
		e.saveState = SaveStateValidating
	}
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
	report, err := c.validator.Validate(ctx, draft)
	cancel()

	var result ValidationResult
	unavailable := err != nil
	if unavailable {
		// Soft failure: an unreachable validator must not deadlock
		// configuration changes.
		c.log.Warn("Validator unavailable", "seq", seq, "error", err)
		result = ValidationResult{
			PathValidation: {Severity: SeverityWarning, Message: "validation unavailable"},
		}
	} else {
		result = resultFromReport(report)
	}

	e.mu.Lock()
	stale := e.generation.Load() != gen || !c.isLatest(seq)
	if !stale {
		e.validation = result
		if e.saveState == SaveStateValidating {
			e.saveState = SaveStateIdle
		}
	}
	e.mu.Unlock()

	if stale {
		e.stats.ValidationStaleDropped.Inc()
		c.log.Debug("Discarded stale validation result", "seq", seq)
		return
	}

	if unavailable {
		e.stats.ValidationRounds.WithLabelValues("unavailable").Inc()
	} else {
		e.stats.ValidationRounds.WithLabelValues("ok").Inc()
	}

	e.publish(events.TopicConfigValidation, events.ValidationEvent{
		Sequence:    seq,
		Findings:    len(result),
		Errors:      result.ErrorCount(),
		Unavailable: unavailable,
	})
}
