package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/refetch-dev/refetch/pkg/resource"
)

// Config configures a Recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "refetch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for fetch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) RecorderOption {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) RecorderOption {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) RecorderOption {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the fetch duration histogram buckets.
func WithBuckets(buckets []float64) RecorderOption {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) RecorderOption {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultRecorderConfig() Config {
	return Config{
		Namespace: "refetch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder owns the metric families for resource activity.
//
// Metrics collected:
//   - refetch_fetches_total: Counter of settled fetches by resource and outcome
//   - refetch_fetch_duration_seconds: Histogram of fetch duration by resource
//   - refetch_inflight_fetches: Gauge of invocations currently running
//   - refetch_stale_results_discarded_total: Counter of superseded results dropped
//   - refetch_mutations_total: Counter of mutations by resource and outcome
//   - refetch_rollbacks_total: Counter of applied mutation rollbacks
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	inflight       *prometheus.GaugeVec
	staleDiscarded *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	rollbacksTotal *prometheus.CounterVec
}

// NewRecorder creates the metric families and registers them.
func NewRecorder(opts ...RecorderOption) *Recorder {
	config := defaultRecorderConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Recorder{
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetches_total",
			Help:        "Total number of settled fetch invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"resource", "outcome"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetch_duration_seconds",
			Help:        "Fetch invocation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"resource"}),

		inflight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inflight_fetches",
			Help:        "Number of fetch invocations currently running",
			ConstLabels: config.ConstLabels,
		}, []string{"resource"}),

		staleDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stale_results_discarded_total",
			Help:        "Total number of superseded invocation results discarded",
			ConstLabels: config.ConstLabels,
		}, []string{"resource"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of settled mutations",
			ConstLabels: config.ConstLabels,
		}, []string{"resource", "outcome"}),

		rollbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rollbacks_total",
			Help:        "Total number of mutation rollbacks applied",
			ConstLabels: config.ConstLabels,
		}, []string{"resource"}),
	}
}

// Observer returns a resource.Observer recording under the given resource
// name. Names should be low-cardinality identifiers, not user input.
func (rec *Recorder) Observer(name string) resource.Observer {
	return &observer{rec: rec, name: name}
}

// observer is the per-resource view of a Recorder.
type observer struct {
	rec  *Recorder
	name string
}

func (o *observer) FetchStarted(gen uint64) {
	o.rec.inflight.WithLabelValues(o.name).Inc()
}

func (o *observer) FetchDone(gen uint64, elapsed time.Duration, err error) {
	o.rec.inflight.WithLabelValues(o.name).Dec()
	o.rec.fetchDuration.WithLabelValues(o.name).Observe(elapsed.Seconds())
	o.rec.fetchesTotal.WithLabelValues(o.name, outcome(err)).Inc()
}

func (o *observer) StaleDiscarded(gen uint64) {
	o.rec.staleDiscarded.WithLabelValues(o.name).Inc()
}

func (o *observer) MutationDone(err error) {
	o.rec.mutationsTotal.WithLabelValues(o.name, outcome(err)).Inc()
}

func (o *observer) RolledBack() {
	o.rec.rollbacksTotal.WithLabelValues(o.name).Inc()
}

// outcome collapses an error to a low-cardinality label value.
func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
