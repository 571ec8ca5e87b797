// Package observe instruments refetch resources with Prometheus metrics
// and OpenTelemetry traces.
//
// A Recorder owns the metric families; each resource attaches a labeled
// Observer from it:
//
//	rec := observe.NewRecorder(observe.WithNamespace("myapp"))
//	r := resource.New(fetchUsers,
//	    resource.WithObserver(rec.Observer("users")))
//
// Traced wraps a producer so every invocation runs inside a span:
//
//	fetcher := observe.Traced("users.list", fetchUsers)
package observe
