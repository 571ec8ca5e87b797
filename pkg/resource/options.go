package resource

import (
	"log/slog"
	"time"
)

// config holds construction-time options.
type config struct {
	deferred bool
	sink     AbortSink
	ctx      Ctx
	logger   *slog.Logger
	observer Observer
}

func defaultConfig() config {
	return config{}
}

// Option configures a resource at construction time, before the first
// invocation can start.
type Option interface {
	isOption()
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) isOption()       {}
func (f optionFunc) apply(c *config) { f(c) }

// Deferred creates the resource idle: no invocation runs until the first
// explicit Revalidate call.
func Deferred() Option {
	return optionFunc(func(c *config) {
		c.deferred = true
	})
}

// WithAbortSink publishes a fresh AbortController to sink before each
// invocation starts, replacing the previous one. The resource never aborts
// superseded work itself; the sink owner decides.
func WithAbortSink(sink AbortSink) Option {
	return optionFunc(func(c *config) {
		c.sink = sink
	})
}

// WithCtx binds the resource to a runtime context. All commits then run on
// the Ctx's event loop and fetch starts are subject to its budget.
func WithCtx(ctx Ctx) Option {
	return optionFunc(func(c *config) {
		c.ctx = ctx
	})
}

// WithLogger enables debug logging of commits, stale discards, and budget
// rejections.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = logger
	})
}

// WithObserver attaches instrumentation. See the observe package for the
// Prometheus/OpenTelemetry implementation.
func WithObserver(o Observer) Option {
	return optionFunc(func(c *config) {
		c.observer = o
	})
}

// Chained configuration. These return the resource so they can follow the
// constructor directly.

// StaleTime sets the duration for which committed data is considered fresh
// by Fetch. Zero (the default) means Fetch always revalidates.
func (r *Resource[T]) StaleTime(d time.Duration) *Resource[T] {
	r.mu.Lock()
	r.staleTime = d
	r.mu.Unlock()
	return r
}

// RetryOnError sets the number of retries and the delay between them for
// failing invocations. The handle settles only after the last attempt.
func (r *Resource[T]) RetryOnError(count int, delay time.Duration) *Resource[T] {
	r.mu.Lock()
	r.retryCount = count
	r.retryDelay = delay
	r.mu.Unlock()
	return r
}

// OnSuccess registers a callback invoked after each successful commit.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}

// OnError registers a callback invoked after each failure commit.
func (r *Resource[T]) OnError(fn func(error)) *Resource[T] {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
	return r
}
