// Package docstore reads and persists managed documents. A document is an
// opaque text file owned by some other system; stores only move bytes and
// never interpret content. Two transports exist: plain files on the local
// filesystem and files inside a running container reached through the
// container runtime.
package docstore

import "context"

// Store is one managed document.
type Store interface {
	// Read returns the full current document. A missing document is
	// reported as ErrNotFound so callers can skip instead of creating
	// files they do not own.
	Read(ctx context.Context) (string, error)

	// Write persists a full replacement document. Implementations must not
	// leave a torn document behind on failure.
	Write(ctx context.Context, content string) error

	// Location describes the document for logs and diffs.
	Location() string
}

// Restarter is implemented by stores whose consumer needs a kick to pick up
// a rewritten document.
type Restarter interface {
	Restart(ctx context.Context) error
}
