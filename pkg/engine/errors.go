package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a save or reset races an in-flight save.
	// Nothing is queued; the caller retries after the current save settles.
	ErrBusy = errors.New("a save is already in flight")

	// ErrPermissionDenied is returned by mutating operations while the
	// security level is low. The gate here is authoritative; disabled UI
	// controls are advisory only.
	ErrPermissionDenied = errors.New("configuration is read-only at the current security level")

	// ErrValidationBlocked is returned by Save while the draft carries at
	// least one error-severity finding.
	ErrValidationBlocked = errors.New("draft has blocking validation errors")

	// ErrUnknownSection is returned by ApplyPatch for a section the loaded
	// document does not contain. The engine never grows or shrinks the
	// section key set.
	ErrUnknownSection = errors.New("unknown configuration section")

	// ErrNotLoaded is returned when an operation runs before a successful
	// Load.
	ErrNotLoaded = errors.New("configuration document not loaded")
)

// LoadError wraps a snapshot fetch failure. Recoverable; the caller may
// re-invoke Load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load configuration: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PersistError wraps a failed save. The draft is retained unchanged, so the
// save can be retried without data loss.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist configuration: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
