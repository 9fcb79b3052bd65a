// Package source resolves authoritative allow-list sources into desired
// sets. A source is consulted fresh on every sync pass; nothing here caches
// across passes, since stale desired state is worse than a failed pass.
package source

import (
	"context"

	"grimm.is/allowsync/internal/itemset"
)

// Source produces the desired set for the targets that reference it.
type Source interface {
	// Name returns the configured identity, "kind.name" form.
	Name() string

	// Desired resolves the source and builds the desired set. An error
	// (including an empty result) means the desired state is unknown and no
	// dependent target may be touched.
	Desired(ctx context.Context) (itemset.Set, error)
}
