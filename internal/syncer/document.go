package syncer

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v2"

	"grimm.is/allowsync/internal/docstore"
	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/logging"
	"grimm.is/allowsync/internal/markers"
)

// DocumentConfig describes one managed document. Exactly one of Marker and
// FamilyMarkers selects the region form.
type DocumentConfig struct {
	Name      string
	SourceRef string

	Marker        string // operator-chosen region identity
	FamilyMarkers bool   // fixed "managed ipv4"/"managed ipv6" regions
	CommentToken  string
	Indent        markers.IndentStrategy

	// VerifyYAML gates persistence on the rewritten document still parsing
	// as YAML. Locating and rendering are unaffected.
	VerifyYAML bool

	// Restart restarts the document's container after a changed persist,
	// when the store supports it.
	Restart bool
}

// DocumentTarget rewrites managed regions inside a document some other
// system owns. The document is read whole, rewritten in memory and
// persisted whole; a missing document is never created.
type DocumentTarget struct {
	cfg   DocumentConfig
	store docstore.Store
	opts  markers.Options
	log   *logging.Logger
}

// NewDocument creates a document target over the given store.
func NewDocument(cfg DocumentConfig, store docstore.Store, log *logging.Logger) *DocumentTarget {
	if log == nil {
		log = logging.Default()
	}
	return &DocumentTarget{
		cfg:   cfg,
		store: store,
		opts: markers.Options{
			CommentToken: cfg.CommentToken,
			Indent:       cfg.Indent,
		},
		log: log.WithComponent("document"),
	}
}

func (t *DocumentTarget) Name() string      { return t.cfg.Name }
func (t *DocumentTarget) Kind() string      { return "document" }
func (t *DocumentTarget) SourceRef() string { return t.cfg.SourceRef }
func (t *DocumentTarget) Location() string  { return t.store.Location() }

// Sync rewrites every managed region to the desired set and persists the
// document if anything changed.
func (t *DocumentTarget) Sync(ctx context.Context, desired itemset.Set, dryRun bool) (Result, error) {
	content, err := t.store.Read(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Result{Skipped: true, Reason: "document not found"}, nil
		}
		return Result{Skipped: true, Reason: fmt.Sprintf("read failed: %v", err)}, nil
	}

	res := Result{Old: content, New: content}
	doc := content
	for _, plan := range t.plans(desired) {
		regions := markers.Locate(doc, plan.marker, t.opts)
		if len(regions) == 0 {
			continue
		}
		res.Regions += len(regions)
		res.Items += len(plan.items)

		next, changed := markers.Rewrite(doc, plan.marker, plan.items, t.opts)
		if changed {
			res.Changed = true
			doc = next
		}
	}
	res.New = doc

	if res.Regions == 0 {
		res.Reason = "no managed regions"
		return res, nil
	}
	if !res.Changed {
		return res, nil
	}

	if t.cfg.VerifyYAML {
		var probe any
		if err := yaml.Unmarshal([]byte(doc), &probe); err != nil {
			return res, fmt.Errorf("rewritten document is not valid YAML, refusing to persist: %w", err)
		}
	}
	if dryRun {
		return res, nil
	}

	if err := t.store.Write(ctx, doc); err != nil {
		return res, fmt.Errorf("persist: %w", err)
	}
	if t.cfg.Restart {
		if r, ok := t.store.(docstore.Restarter); ok {
			if err := r.Restart(ctx); err != nil {
				return res, fmt.Errorf("restart after update: %w", err)
			}
		}
	}
	return res, nil
}

type rewritePlan struct {
	marker markers.Marker
	items  []string
}

// plans maps the desired set onto the regions this target maintains. A
// named region takes the whole set; family regions split it by family.
func (t *DocumentTarget) plans(desired itemset.Set) []rewritePlan {
	if !t.cfg.FamilyMarkers {
		return []rewritePlan{{marker: markers.Named(t.cfg.Marker), items: desired.Items()}}
	}

	var v4, v6 []string
	for _, item := range desired.Items() {
		switch {
		case itemset.IsIPv4(item):
			v4 = append(v4, item)
		case itemset.IsIPv6(item):
			v6 = append(v6, item)
		}
	}
	return []rewritePlan{
		{marker: markers.ForFamily("ipv4"), items: v4},
		{marker: markers.ForFamily("ipv6"), items: v6},
	}
}
