package syncer

import (
	"context"
	"errors"
	"fmt"

	"grimm.is/allowsync/internal/backend"
	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
	"grimm.is/allowsync/internal/reconcile"
)

// ListTarget reconciles a remotely-recorded membership collection with
// deltas. It serves both list-API and nftables backends; only the kind
// label differs.
type ListTarget struct {
	name      string
	kind      string
	sourceRef string
	backend   backend.ListBackend
	log       *logging.Logger
}

// NewList creates a target over a recorded-membership backend.
func NewList(name, kind, sourceRef string, b backend.ListBackend, log *logging.Logger) *ListTarget {
	if log == nil {
		log = logging.Default()
	}
	return &ListTarget{
		name:      name,
		kind:      kind,
		sourceRef: sourceRef,
		backend:   b,
		log:       log.WithComponent(kind),
	}
}

func (t *ListTarget) Name() string      { return t.name }
func (t *ListTarget) Kind() string      { return t.kind }
func (t *ListTarget) SourceRef() string { return t.sourceRef }
func (t *ListTarget) Location() string  { return t.backend.Location() }

// Sync fetches the recorded membership, computes the delta against desired
// and applies it. A collection that has never been created is created with
// the full desired set.
func (t *ListTarget) Sync(ctx context.Context, desired itemset.Set, dryRun bool) (Result, error) {
	recorded, err := t.backend.Fetch(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrCollectionMissing) {
			return t.create(ctx, desired, dryRun)
		}
		return Result{Skipped: true, Reason: fmt.Sprintf("fetch failed: %v", err)}, nil
	}

	delta := reconcile.Diff(desired, itemset.NewSet(recorded...))
	if delta.Empty() {
		return Result{}, nil
	}

	res := Result{Changed: true, Added: delta.Add, Removed: delta.Remove}
	if dryRun {
		return res, nil
	}

	if len(delta.Add) > 0 {
		if err := t.backend.Add(ctx, delta.Add); err != nil {
			return res, fmt.Errorf("add %d items: %w", len(delta.Add), err)
		}
	}
	if len(delta.Remove) > 0 {
		if err := t.backend.Remove(ctx, delta.Remove); err != nil {
			return res, fmt.Errorf("remove %d items: %w", len(delta.Remove), err)
		}
	}
	return res, nil
}

func (t *ListTarget) create(ctx context.Context, desired itemset.Set, dryRun bool) (Result, error) {
	items := desired.Items()
	res := Result{Changed: true, Added: items, Reason: "collection created"}
	if dryRun {
		res.Reason = "collection will be created"
		return res, nil
	}

	t.log.Info("creating missing collection", "target", t.name, "location", t.Location(), "items", len(items))
	if err := t.backend.Create(ctx, items); err != nil {
		return Result{Skipped: true, Reason: fmt.Sprintf("collection missing and create failed: %v", err)}, nil
	}
	return res, nil
}
