package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentinelhaus/confd/pkg/events"
)

// Save persists the draft to the source of truth. Preconditions, checked in
// order with no state change on refusal: the gate allows edits, the current
// validation result has no error-severity findings, and no save is already in
// flight. A clean draft still saves; that is a harmless no-op.
//
// On success the snapshot becomes the draft as captured at the moment the
// persist call was issued. On failure the draft is retained unchanged so the
// save can be retried.
func (e *Engine) Save(ctx context.Context) error {
	if !e.gate.Editable() {
		e.denyPermission("save")
		return ErrPermissionDenied
	}

	e.mu.Lock()
	if e.snapshot == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saveState == SaveStateSaving {
		e.mu.Unlock()
		e.stats.Saves.WithLabelValues("busy").Inc()
		return ErrBusy
	}
	if e.validation.HasErrors() {
		e.mu.Unlock()
		e.stats.Saves.WithLabelValues("blocked").Inc()
		return ErrValidationBlocked
	}
	captured := e.draft.Copy()
	e.saveState = SaveStateSaving
	e.mu.Unlock()

	attemptID := uuid.New().String()

	pctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	err := e.source.Put(pctx, captured)
	cancel()

	if err != nil {
		e.mu.Lock()
		e.saveState = SaveStateIdle
		e.mu.Unlock()

		e.stats.Saves.WithLabelValues("failure").Inc()
		e.log.Error("Save failed, draft retained", "attempt_id", attemptID, "error", err)
		e.publish(events.TopicConfigSaveFailed, events.SaveFailedEvent{
			AttemptID: attemptID,
			Message:   err.Error(),
		})
		return &PersistError{Err: err}
	}

	e.mu.Lock()
	e.commitSnapshotLocked(captured)
	e.saveState = SaveStateIdle
	e.mu.Unlock()

	e.stats.Saves.WithLabelValues("success").Inc()
	e.log.Info("Configuration saved", "attempt_id", attemptID)
	e.publish(events.TopicConfigSaved, events.SavedEvent{
		AttemptID: attemptID,
		Document:  captured,
	})
	return nil
}
