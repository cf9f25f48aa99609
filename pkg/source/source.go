// Package source defines the Source-of-Truth collaborator: the remote
// authoritative store the engine loads from, persists to, and polls for
// drift. Implementations own all transport and storage concerns; errors they
// return are wrapped into the engine's taxonomy at the engine boundary.
package source

import (
	"context"
	"time"

	"github.com/sentinelhaus/confd/pkg/document"
)

type Store interface {
	Get(ctx context.Context) (document.Document, error)
	Put(ctx context.Context, doc document.Document) error
	Close() error
}

// Revision is one committed document version. Backends without history
// support simply do not implement Historian.
type Revision struct {
	Number    int64
	Timestamp time.Time
	Document  document.Document
}

type Historian interface {
	Revisions(ctx context.Context, limit int) ([]Revision, error)
}
