package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Result labels for runs and target syncs.
const (
	ResultOK        = "ok"
	ResultPartial   = "partial"
	ResultFailed    = "failed"
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
)

// Registry holds all sync metrics.
type Registry struct {
	// Pass metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastRun     prometheus.Gauge

	// Per-target metrics
	TargetSyncs  *prometheus.CounterVec
	ItemsAdded   *prometheus.CounterVec
	ItemsRemoved *prometheus.CounterVec
	LastChange   *prometheus.GaugeVec

	// Source metrics
	DesiredItems *prometheus.GaugeVec
	SourceErrors *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	// Pass metrics
	r.RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowsync_runs_total",
		Help: "Total sync passes by result",
	}, []string{"result"})

	r.RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "allowsync_run_duration_seconds",
		Help:    "Duration of sync passes",
		Buckets: prometheus.DefBuckets,
	})

	r.LastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allowsync_last_run_timestamp",
		Help: "Unix timestamp of the last completed pass",
	})

	// Per-target metrics
	r.TargetSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowsync_target_syncs_total",
		Help: "Total target syncs by result",
	}, []string{"target", "result"})

	r.ItemsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowsync_items_added_total",
		Help: "Total items added per target",
	}, []string{"target"})

	r.ItemsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowsync_items_removed_total",
		Help: "Total items removed per target",
	}, []string{"target"})

	r.LastChange = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "allowsync_last_change_timestamp",
		Help: "Unix timestamp of the last change per target",
	}, []string{"target"})

	// Source metrics
	r.DesiredItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "allowsync_desired_items",
		Help: "Size of the desired set per source",
	}, []string{"source"})

	r.SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowsync_source_errors_total",
		Help: "Total source resolution failures",
	}, []string{"source"})

	return r
}

// RecordRun records a completed pass.
func (r *Registry) RecordRun(result string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(result).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.LastRun.SetToCurrentTime()
}

// RecordTarget records one target's outcome within a pass.
func (r *Registry) RecordTarget(target, result string, added, removed int) {
	r.TargetSyncs.WithLabelValues(target, result).Inc()
	if added > 0 {
		r.ItemsAdded.WithLabelValues(target).Add(float64(added))
	}
	if removed > 0 {
		r.ItemsRemoved.WithLabelValues(target).Add(float64(removed))
	}
	if result == ResultChanged {
		r.LastChange.WithLabelValues(target).SetToCurrentTime()
	}
}

// RecordDesired records the resolved desired-set size for a source.
func (r *Registry) RecordDesired(source string, size int) {
	r.DesiredItems.WithLabelValues(source).Set(float64(size))
}

// RecordSourceError records a source resolution failure.
func (r *Registry) RecordSourceError(source string) {
	r.SourceErrors.WithLabelValues(source).Inc()
}
