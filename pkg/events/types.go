package events

import "github.com/sentinelhaus/confd/pkg/document"

// SavedEvent reports a successful commit of the draft to the authoritative
// store. AttemptID correlates it with a preceding save attempt.
type SavedEvent struct {
	AttemptID string
	Document  document.Document
}

type SaveFailedEvent struct {
	AttemptID string
	Message   string
}

type LoadFailedEvent struct {
	Message string
}

// ConflictEvent fires when the drift monitor sees an external change while
// the local draft is dirty. Remote carries the fetched document so a caller
// can offer a manual rebase; the engine does not merge.
type ConflictEvent struct {
	Remote document.Document
}

type PermissionDeniedEvent struct {
	Operation string
}

// ValidationEvent reports a completed validation round for the current draft.
// Unavailable is set when the validator could not be reached and the findings
// hold only the synthetic warning.
type ValidationEvent struct {
	Sequence    uint64
	Findings    int
	Errors      int
	Unavailable bool
}
