package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGetReturnsSameRegistry(t *testing.T) {
	if Get() != Get() {
		t.Error("Expected a single shared registry")
	}
}

func TestRecordTarget(t *testing.T) {
	r := Get()

	r.RecordTarget("wireguard", ResultChanged, 2, 1)
	r.RecordTarget("wireguard", ResultUnchanged, 0, 0)

	if got := testutil.ToFloat64(r.ItemsAdded.WithLabelValues("wireguard")); got != 2 {
		t.Errorf("Expected 2 items added, got %v", got)
	}
	if got := testutil.ToFloat64(r.ItemsRemoved.WithLabelValues("wireguard")); got != 1 {
		t.Errorf("Expected 1 item removed, got %v", got)
	}
	if got := testutil.ToFloat64(r.TargetSyncs.WithLabelValues("wireguard", ResultChanged)); got != 1 {
		t.Errorf("Expected 1 changed sync, got %v", got)
	}
	if got := testutil.ToFloat64(r.LastChange.WithLabelValues("wireguard")); got == 0 {
		t.Error("Expected last change timestamp to be set")
	}
}

func TestRecordRunAndDesired(t *testing.T) {
	r := Get()

	r.RecordRun(ResultOK, 250*time.Millisecond)
	if got := testutil.ToFloat64(r.RunsTotal.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("Expected 1 run, got %v", got)
	}
	if got := testutil.ToFloat64(r.LastRun); got == 0 {
		t.Error("Expected last run timestamp to be set")
	}

	r.RecordDesired("dns.home", 5)
	if got := testutil.ToFloat64(r.DesiredItems.WithLabelValues("dns.home")); got != 5 {
		t.Errorf("Expected desired size 5, got %v", got)
	}

	r.RecordSourceError("dns.home")
	if got := testutil.ToFloat64(r.SourceErrors.WithLabelValues("dns.home")); got != 1 {
		t.Errorf("Expected 1 source error, got %v", got)
	}
}
