// Package backend persists allow-list membership in systems that hold their
// own recorded state: an HTTP list API or kernel nftables sets. Unlike
// documents, these sinks support incremental add/remove, so the sync driver
// reconciles them with deltas instead of full rewrites.
package backend

import (
	"context"
	"errors"
)

// ErrCollectionMissing is returned by Fetch when the collection does not
// exist yet. The driver responds by creating it with the full desired set.
var ErrCollectionMissing = errors.New("collection not found")

// ListBackend is one remotely-recorded membership collection. Add and
// Remove are idempotent batch operations; there is no transactional
// replace, so a failed batch leaves a superset or subset that the next pass
// converges.
type ListBackend interface {
	// Fetch returns the recorded membership, ErrCollectionMissing when the
	// collection has never been created.
	Fetch(ctx context.Context) ([]string, error)

	// Create creates the collection with an initial membership.
	Create(ctx context.Context, items []string) error

	// Add inserts items; existing items are tolerated.
	Add(ctx context.Context, items []string) error

	// Remove deletes items; absent items are tolerated.
	Remove(ctx context.Context, items []string) error

	// Location describes the collection for logs.
	Location() string
}

// NFTSetConfig names the kernel sets backing one collection. The two sets
// live in the same inet table and split membership by address family.
type NFTSetConfig struct {
	Table string
	SetV4 string
	SetV6 string
}
