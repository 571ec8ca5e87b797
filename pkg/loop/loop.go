package loop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/refetch-dev/refetch/pkg/resource"
)

// defaultQueueSize is the dispatch queue capacity. Commits are small
// closures; the queue only fills when the loop goroutine is stalled.
const defaultQueueSize = 256

// Loop is a serial event loop implementing resource.Ctx. Functions passed
// to Dispatch run one at a time on the loop goroutine.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	stopped    chan struct{}
	closed     atomic.Bool

	std    context.Context
	budget *Budget
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		l.dispatchCh = make(chan func(), n)
	}
}

// WithStdContext sets the context returned by StdContext. Stopping that
// context cancels every invocation derived from the loop.
func WithStdContext(ctx context.Context) Option {
	return func(l *Loop) {
		l.std = ctx
	}
}

// WithBudget attaches a fetch-start budget.
func WithBudget(b *Budget) Option {
	return func(l *Loop) {
		l.budget = b
	}
}

// WithLogger sets the logger used for dropped dispatches and recovered
// panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a Loop. Call Start (or Run on a dedicated goroutine) before
// binding resources to it.
func New(opts ...Option) *Loop {
	l := &Loop{
		dispatchCh: make(chan func(), defaultQueueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		std:        context.Background(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start runs the loop on its own goroutine.
func (l *Loop) Start() {
	go l.Run()
}

// Run processes dispatched functions until Stop is called. Pending
// functions already queued when Stop arrives are drained before Run
// returns.
func (l *Loop) Run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.dispatchCh:
			l.invoke(fn)
		case <-l.done:
			for {
				select {
				case fn := <-l.dispatchCh:
					l.invoke(fn)
				default:
					return
				}
			}
		}
	}
}

// Stop shuts the loop down and waits for the drain to finish.
// Dispatch calls after Stop are discarded.
func (l *Loop) Stop() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.done)
	}
	<-l.stopped
}

// Dispatch queues fn to run on the loop goroutine. Safe to call from any
// goroutine. Implements resource.Ctx.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
		// Loop is closing, discard
	}
}

// StdContext returns the loop's base context. Implements resource.Ctx.
func (l *Loop) StdContext() context.Context {
	return l.std
}

// Budget returns the fetch budget, or nil when unlimited.
// Implements resource.Ctx.
func (l *Loop) Budget() resource.BudgetChecker {
	if l.budget == nil {
		return nil
	}
	return l.budget
}

// invoke runs one dispatched function, recovering panics so a single bad
// commit cannot kill the loop.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			l.logger.Error("panic in dispatched function", "panic", v)
		}
	}()
	fn()
}
