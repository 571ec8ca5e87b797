package observe

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRecorder(t *testing.T, opts ...RecorderOption) *Recorder {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts = append([]RecorderOption{WithRegistry(reg)}, opts...)
	return NewRecorder(opts...)
}

func TestObserverFetchCounters(t *testing.T) {
	rec := newTestRecorder(t)
	obs := rec.Observer("users")

	obs.FetchStarted(1)
	if got := testutil.ToFloat64(rec.inflight.WithLabelValues("users")); got != 1 {
		t.Errorf("inflight = %v, want 1", got)
	}

	obs.FetchDone(1, 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(rec.inflight.WithLabelValues("users")); got != 0 {
		t.Errorf("inflight after done = %v, want 0", got)
	}
	if got := testutil.ToFloat64(rec.fetchesTotal.WithLabelValues("users", "success")); got != 1 {
		t.Errorf("fetches_total{success} = %v, want 1", got)
	}

	obs.FetchStarted(2)
	obs.FetchDone(2, time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(rec.fetchesTotal.WithLabelValues("users", "error")); got != 1 {
		t.Errorf("fetches_total{error} = %v, want 1", got)
	}
}

func TestObserverStaleAndMutationCounters(t *testing.T) {
	rec := newTestRecorder(t)
	obs := rec.Observer("users")

	obs.StaleDiscarded(3)
	obs.StaleDiscarded(4)
	if got := testutil.ToFloat64(rec.staleDiscarded.WithLabelValues("users")); got != 2 {
		t.Errorf("stale_results_discarded_total = %v, want 2", got)
	}

	obs.MutationDone(nil)
	obs.MutationDone(errors.New("boom"))
	obs.RolledBack()
	if got := testutil.ToFloat64(rec.mutationsTotal.WithLabelValues("users", "success")); got != 1 {
		t.Errorf("mutations_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.mutationsTotal.WithLabelValues("users", "error")); got != 1 {
		t.Errorf("mutations_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.rollbacksTotal.WithLabelValues("users")); got != 1 {
		t.Errorf("rollbacks_total = %v, want 1", got)
	}
}

func TestRecorderNamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(
		WithRegistry(reg),
		WithNamespace("myapp"),
		WithSubsystem("cache"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
	)
	rec.Observer("users").FetchStarted(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "myapp_cache_inflight_fetches" {
			found = true
		}
	}
	if !found {
		t.Error("Expected myapp_cache_inflight_fetches to be registered")
	}
}

func TestSeparateObserversDoNotShareSeries(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Observer("users").FetchDone(1, time.Millisecond, nil)
	rec.Observer("orders").FetchDone(1, time.Millisecond, nil)

	if got := testutil.ToFloat64(rec.fetchesTotal.WithLabelValues("users", "success")); got != 1 {
		t.Errorf("users series = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.fetchesTotal.WithLabelValues("orders", "success")); got != 1 {
		t.Errorf("orders series = %v, want 1", got)
	}
}
