package resource

import (
	"context"
	"sync/atomic"
)

// AbortController carries the cancellation handle for a single invocation.
// The resource creates a fresh controller for every invocation and, when an
// abort sink is configured, publishes it to the sink before the producer
// starts. Cancellation is advisory: the producer observes it through the
// context it receives, and stale-result suppression keeps state correct
// even when nothing is ever aborted.
type AbortController struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	fired  atomic.Bool
}

// newAbortController derives a controller from the given parent context.
func newAbortController(parent context.Context, gen uint64) *AbortController {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &AbortController{gen: gen, ctx: ctx, cancel: cancel}
}

// Abort cancels the invocation this controller belongs to.
// Calling it more than once is harmless.
func (c *AbortController) Abort() {
	if c.fired.CompareAndSwap(false, true) {
		c.cancel()
	}
}

// Aborted reports whether Abort has been called.
func (c *AbortController) Aborted() bool {
	return c.fired.Load()
}

// Context returns the context the producer runs under. It is cancelled
// when Abort is called or when the parent context ends.
func (c *AbortController) Context() context.Context {
	return c.ctx
}

// Generation returns the generation of the invocation this controller
// belongs to.
func (c *AbortController) Generation() uint64 {
	return c.gen
}

// AbortSink receives the controller for each new invocation, replacing
// whatever controller it held before. The collaborator uses it to abort
// superseded work (e.g. an underlying network request) on its own terms.
type AbortSink func(*AbortController)
