// Package syncer drives a reconciliation pass: resolve every referenced
// source once, then bring each configured target in line with its desired
// set. Targets are isolated from each other; sources are isolated from
// each other; a pass never retries (re-running it is the retry).
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grimm.is/allowsync/internal/clock"
	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/journal"
	"grimm.is/allowsync/internal/logging"
	"grimm.is/allowsync/internal/metrics"
	"grimm.is/allowsync/internal/notification"
	"grimm.is/allowsync/internal/source"
)

// Target is one externally consumed sink of a desired set.
type Target interface {
	// Name returns the configured target name.
	Name() string

	// Kind returns the mechanism: "document", "list" or "nftset".
	Kind() string

	// SourceRef returns the "kind.name" reference of the feeding source.
	SourceRef() string

	// Location describes where the membership lives, for logs and diffs.
	Location() string

	// Sync brings the target in line with desired. A returned error means
	// the target failed and its delta was discarded. A Result with Skipped
	// set means current state could not be read and the target was left
	// untouched; that is a warning, not a failure.
	Sync(ctx context.Context, desired itemset.Set, dryRun bool) (Result, error)
}

// Result is what one target's Sync reports back.
type Result struct {
	Changed bool
	Skipped bool
	Reason  string // why skipped, or context for an unchanged pass

	// Membership deltas, for list and nftset targets.
	Added   []string
	Removed []string

	// Document rewrites.
	Items   int // items rendered into managed regions
	Regions int // regions rewritten

	// Full document content before and after, for diff rendering.
	Old string
	New string
}

// Outcome is the structured record of one target within one pass.
type Outcome struct {
	RunID    string
	Target   string
	Kind     string
	Location string
	Changed  bool
	Skipped  bool
	Reason   string
	Added    []string
	Removed  []string
	Items    int
	Regions  int
	Err      error
	Duration time.Duration

	// Document content pair, populated on dry runs for diff output.
	Old string
	New string
}

// Report summarizes one pass.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	DryRun   bool
	Outcomes []Outcome
}

// Changed reports whether any target changed.
func (r *Report) Changed() bool {
	for _, o := range r.Outcomes {
		if o.Changed {
			return true
		}
	}
	return false
}

// Failed reports whether any target failed. Skipped targets do not count.
func (r *Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}

// RunOptions selects what a pass does.
type RunOptions struct {
	// DryRun computes and reports deltas without persisting anything.
	// Dry passes also skip the journal, metrics and notifications.
	DryRun bool

	// Targets restricts the pass to the named targets. Empty means all.
	Targets []string
}

// Syncer executes reconciliation passes over a fixed configuration.
type Syncer struct {
	log      *logging.Logger
	sources  map[string]source.Source
	targets  []Target
	journal  *journal.Store
	notifier *notification.Dispatcher
}

type resolution struct {
	set itemset.Set
	err error
}

// SetJournal attaches a run journal. Outcomes of real passes are recorded;
// dry runs never touch it.
func (s *Syncer) SetJournal(j *journal.Store) {
	s.journal = j
}

// SetNotifier attaches a notification dispatcher for run summaries.
func (s *Syncer) SetNotifier(d *notification.Dispatcher) {
	s.notifier = d
}

// Targets returns the configured targets in declaration order.
func (s *Syncer) Targets() []Target {
	return s.targets
}

// Run executes one pass. The returned error covers pass-level problems
// only (an unknown name in opts.Targets); per-target failures are reported
// in the outcomes and via Report.Failed.
func (s *Syncer) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	targets, err := s.selectTargets(opts.Targets)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   uuid.New().String(),
		Started: clock.Now(),
		DryRun:  opts.DryRun,
	}
	log := s.log.WithFields(map[string]any{"run_id": report.RunID})
	log.Info("starting sync pass", "targets", len(targets), "dry_run", opts.DryRun)

	resolved := s.resolveSources(ctx, log, targets, opts.DryRun)

	for _, t := range targets {
		outcome := s.syncTarget(ctx, log, t, resolved[t.SourceRef()], opts.DryRun)
		outcome.RunID = report.RunID

		if !opts.DryRun {
			s.record(ctx, log, report.Started, outcome)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.Duration = clock.Since(report.Started)
	if !opts.DryRun {
		metrics.Get().RecordRun(runResult(report), report.Duration)
		s.notify(ctx, report)
	}

	log.Info("sync pass finished",
		"changed", report.Changed(),
		"failed", report.Failed(),
		"duration", report.Duration)
	return report, nil
}

// resolveSources resolves each source referenced by the selected targets
// exactly once. Targets sharing a source see the same set; a resolution
// failure fails exactly the dependent targets.
func (s *Syncer) resolveSources(ctx context.Context, log *logging.Logger, targets []Target, dryRun bool) map[string]resolution {
	resolved := make(map[string]resolution)
	for _, t := range targets {
		ref := t.SourceRef()
		if _, done := resolved[ref]; done {
			continue
		}

		set, err := s.sources[ref].Desired(ctx)
		resolved[ref] = resolution{set: set, err: err}
		if err != nil {
			log.Error("source resolution failed", "source", ref, "error", err)
			if !dryRun {
				metrics.Get().RecordSourceError(ref)
			}
			continue
		}
		log.Info("resolved source", "source", ref, "items", set.Len())
		if !dryRun {
			metrics.Get().RecordDesired(ref, set.Len())
		}
	}
	return resolved
}

func (s *Syncer) syncTarget(ctx context.Context, log *logging.Logger, t Target, res resolution, dryRun bool) Outcome {
	outcome := Outcome{
		Target:   t.Name(),
		Kind:     t.Kind(),
		Location: t.Location(),
	}
	started := clock.Now()
	defer func() {
		outcome.Duration = clock.Since(started)
	}()

	if res.err != nil {
		// Desired state is unknown; current state must not be touched.
		outcome.Err = fmt.Errorf("resolve %s: %w", t.SourceRef(), res.err)
		log.Error("target failed", "target", t.Name(), "error", outcome.Err)
		return outcome
	}

	r, err := t.Sync(ctx, res.set, dryRun)
	outcome.Regions = r.Regions
	outcome.Old = r.Old
	outcome.New = r.New
	if err != nil {
		// The delta is discarded with the failure; reporting it as a
		// change would claim work that did not happen.
		outcome.Err = err
		log.Error("target failed", "target", t.Name(), "location", t.Location(), "error", err)
		return outcome
	}

	outcome.Changed = r.Changed
	outcome.Skipped = r.Skipped
	outcome.Reason = r.Reason
	outcome.Added = r.Added
	outcome.Removed = r.Removed
	outcome.Items = r.Items

	switch {
	case r.Skipped:
		log.Warn("target skipped", "target", t.Name(), "location", t.Location(), "reason", r.Reason)
	case r.Changed:
		log.Info("target updated",
			"target", t.Name(),
			"location", t.Location(),
			"added", len(r.Added),
			"removed", len(r.Removed),
			"items", r.Items,
			"regions", r.Regions,
			"dry_run", dryRun)
	case r.Reason != "":
		log.Info("target unchanged", "target", t.Name(), "location", t.Location(), "reason", r.Reason)
	default:
		log.Debug("target unchanged", "target", t.Name(), "location", t.Location())
	}
	return outcome
}

// record pushes one outcome into metrics and the journal.
func (s *Syncer) record(ctx context.Context, log *logging.Logger, started time.Time, o Outcome) {
	m := metrics.Get()
	switch {
	case o.Err != nil:
		m.RecordTarget(o.Target, metrics.ResultFailed, 0, 0)
	case o.Skipped:
		m.RecordTarget(o.Target, metrics.ResultSkipped, 0, 0)
	case o.Changed:
		m.RecordTarget(o.Target, metrics.ResultChanged, len(o.Added), len(o.Removed))
	default:
		m.RecordTarget(o.Target, metrics.ResultUnchanged, 0, 0)
	}

	if s.journal == nil {
		return
	}
	entry := journal.Entry{
		RunID:   o.RunID,
		Started: started,
		Target:  o.Target,
		Kind:    o.Kind,
		Changed: o.Changed,
		Added:   o.Added,
		Removed: o.Removed,
		Regions: o.Regions,
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		log.Warn("journal record failed", "target", o.Target, "error", err)
	}
}

func (s *Syncer) notify(ctx context.Context, report *Report) {
	if s.notifier == nil {
		return
	}
	n, ok := FromOutcomes(report.RunID, report.Outcomes)
	if !ok {
		return
	}
	s.notifier.Send(ctx, n)
}

func (s *Syncer) selectTargets(names []string) ([]Target, error) {
	if len(names) == 0 {
		return s.targets, nil
	}
	byName := make(map[string]Target, len(s.targets))
	for _, t := range s.targets {
		byName[t.Name()] = t
	}
	var selected []Target
	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

func runResult(report *Report) string {
	failed := 0
	for _, o := range report.Outcomes {
		if o.Err != nil {
			failed++
		}
	}
	switch {
	case failed == 0:
		return metrics.ResultOK
	case failed == len(report.Outcomes):
		return metrics.ResultFailed
	default:
		return metrics.ResultPartial
	}
}
