package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/refetch-dev/refetch/pkg/reactive"
)

// State represents the current state of a resource.
type State int

const (
	Pending State = iota // Created deferred, nothing ran yet
	Loading              // Fetch or mutation in progress
	Ready                // Data successfully committed
	Error                // Last committed outcome was a failure
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Ctx is the runtime context a resource can be bound to. When present, all
// state commits are queued onto it via Dispatch, so every resource bound to
// the same Ctx sees single-threaded, ordered commits. The loop package
// provides the standard implementation.
type Ctx interface {
	// Dispatch queues a function to run on the owning event loop.
	// Safe to call from any goroutine.
	Dispatch(fn func())

	// StdContext returns the standard library context invocations derive
	// their abort contexts from.
	StdContext() context.Context

	// Budget returns the revalidation budget, or nil if unlimited.
	Budget() BudgetChecker
}

// BudgetChecker rate-limits fetch starts. Implemented by loop.Budget.
type BudgetChecker interface {
	// CheckFetch returns nil if another fetch may start, or
	// ErrBudgetExceeded when the window is full.
	CheckFetch() error
}

// Snapshot is the externally visible state of a resource at one instant.
// During a pending optimistic mutation Data holds the speculative value.
type Snapshot[T any] struct {
	Data    T
	Err     error
	Loading bool
	State   State
}

// Resource manages asynchronous data fetching and state for one call site.
// It is not shared across call sites; the owning collaborator constructs
// it, reads its snapshot on every redraw, and calls Close on teardown.
type Resource[T any] struct {
	fetcher func(context.Context) (T, error)

	state *reactive.Signal[State]
	data  *reactive.Signal[T]
	err   *reactive.Signal[error]

	// Construction options
	ctx      Ctx
	sink     AbortSink
	logger   *slog.Logger
	observer Observer

	// Chained options
	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
	onSuccess  func(T)
	onError    func(error)

	// Internal
	lastFetch time.Time
	gen       uint64 // generation counter; only the newest generation commits
	ctrl      *AbortController
	closed    bool
	mu        sync.Mutex
}

// New creates a resource around the given producer. Unless the Deferred
// option is given, generation 1 starts immediately.
func New[T any](fetcher func(context.Context) (T, error), opts ...Option) *Resource[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	r := &Resource[T]{
		fetcher:  fetcher,
		state:    reactive.NewSignal(Pending),
		data:     reactive.NewSignal(*new(T)),
		err:      reactive.NewSignal[error](nil),
		ctx:      cfg.ctx,
		sink:     cfg.sink,
		logger:   cfg.logger,
		observer: cfg.observer,
	}

	if !cfg.deferred {
		r.Revalidate()
	}
	return r
}

// State methods

func (r *Resource[T]) State() State {
	return r.state.Get()
}

// IsLoading reports whether a fetch or mutation affecting displayed state
// is in flight. A deferred resource that never ran is Pending, not loading.
func (r *Resource[T]) IsLoading() bool {
	return r.state.Get() == Loading
}

func (r *Resource[T]) IsReady() bool {
	return r.state.Get() == Ready
}

func (r *Resource[T]) IsError() bool {
	return r.state.Get() == Error
}

// Data access methods

func (r *Resource[T]) Data() T {
	return r.data.Get()
}

// DataOr returns the committed data, or fallback when the resource is not
// Ready.
func (r *Resource[T]) DataOr(fallback T) T {
	if r.IsReady() {
		return r.data.Get()
	}
	return fallback
}

func (r *Resource[T]) Error() error {
	return r.err.Get()
}

// Snapshot returns the current state tuple. When the resource is bound to
// a Ctx and Snapshot is called on that loop, the tuple is consistent; off
// the loop the fields are individually current but may straddle a commit.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	s := r.state.Get()
	return Snapshot[T]{
		Data:    r.data.Get(),
		Err:     r.err.Get(),
		Loading: s == Loading,
		State:   s,
	}
}

// Subscribe registers fn to run whenever any part of the snapshot changes.
// The returned cancel function removes the subscription.
func (r *Resource[T]) Subscribe(fn func()) reactive.Cancel {
	c1 := r.state.Subscribe(fn)
	c2 := r.data.Subscribe(fn)
	c3 := r.err.Subscribe(fn)
	return func() {
		c1()
		c2()
		c3()
	}
}

// Control methods

// Fetch triggers a revalidation unless the current data is still fresh
// per StaleTime. To force a fetch, use Revalidate.
func (r *Resource[T]) Fetch() {
	r.mu.Lock()
	fresh := r.staleTime > 0 && time.Since(r.lastFetch) < r.staleTime
	r.mu.Unlock()
	if fresh && r.state.Get() == Ready {
		return
	}
	r.Revalidate()
}

// Revalidate starts a new invocation of the producer. Loading is set
// synchronously before any work is suspended. The returned handle settles
// with the invocation's own outcome even if a newer generation supersedes
// it before completion.
func (r *Resource[T]) Revalidate() *Handle[T] {
	h := newHandle[T]()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		var zero T
		h.settle(zero, ErrClosed)
		return h
	}
	r.gen++
	gen := r.gen
	ctrl := newAbortController(r.stdContext(), gen)
	r.ctrl = ctrl
	retryCount, retryDelay := r.retryCount, r.retryDelay
	r.mu.Unlock()

	if r.sink != nil {
		r.sink(ctrl)
	}

	if err := r.checkBudget(); err != nil {
		r.logDebug("fetch rejected by budget", "gen", gen)
		r.dispatch(func() {
			if !r.isCurrent(gen) {
				return
			}
			r.commitError(err)
		})
		var zero T
		h.settle(zero, err)
		return h
	}

	r.state.Set(Loading)
	r.err.Set(nil)

	if r.observer != nil {
		r.observer.FetchStarted(gen)
	}

	go r.runFetch(gen, ctrl, retryCount, retryDelay, h)
	return h
}

// Invalidate marks the current data as stale so the next Fetch runs even
// inside the StaleTime window.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.lastFetch = time.Time{}
	r.mu.Unlock()
}

// Close tears down the resource: the outstanding invocation (if any) is
// signaled for cancellation and no further commits are applied. Handles
// already returned still settle with their true outcomes.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	ctrl := r.ctrl
	r.mu.Unlock()

	if ctrl != nil {
		ctrl.Abort()
	}
}

// Internal machinery

// runFetch executes the producer (with retries) off the loop, settles the
// handle with the true outcome, and commits the result if this generation
// is still current.
func (r *Resource[T]) runFetch(gen uint64, ctrl *AbortController, retryCount int, retryDelay time.Duration, h *Handle[T]) {
	start := time.Now()

	var result T
	var err error
	maxAttempts := 1 + retryCount
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctrl.Context().Done():
			}
		}
		if ctxErr := ctrl.Context().Err(); ctxErr != nil {
			err = r.abortError(ctrl, ctxErr)
			break
		}
		result, err = r.invoke(ctrl.Context())
		if err == nil {
			break
		}
	}

	if r.observer != nil {
		r.observer.FetchDone(gen, time.Since(start), err)
	}
	h.settle(result, err)

	r.dispatch(func() {
		if !r.isCurrent(gen) {
			if r.observer != nil {
				r.observer.StaleDiscarded(gen)
			}
			r.logDebug("stale result discarded", "gen", gen)
			return
		}

		r.mu.Lock()
		r.lastFetch = time.Now()
		r.mu.Unlock()

		if err != nil {
			r.commitError(err)
		} else {
			r.commitData(result)
		}
	})
}

// invoke runs the producer once, converting a panic into an error so
// automatic executions never surface an unhandled failure.
func (r *Resource[T]) invoke(ctx context.Context) (result T, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("refetch: producer panic: %v", v)
		}
	}()
	return r.fetcher(ctx)
}

// abortError distinguishes an explicit Abort from a parent context ending.
func (r *Resource[T]) abortError(ctrl *AbortController, ctxErr error) error {
	if ctrl.Aborted() {
		return ErrAborted
	}
	return ctxErr
}

// commitData applies a confirmed value. Callers have already verified the
// generation is current.
func (r *Resource[T]) commitData(value T) {
	r.data.Set(value)
	r.err.Set(nil)
	r.state.Set(Ready)
	r.logDebug("data committed")

	if fn := r.successCallback(); fn != nil {
		fn(value)
	}
}

// commitError applies a failure. Data and error are mutually exclusive, so
// the previous value is cleared.
func (r *Resource[T]) commitError(err error) {
	var zero T
	r.data.Set(zero)
	r.err.Set(err)
	r.state.Set(Error)
	r.logDebug("error committed", "error", err)

	if fn := r.errorCallback(); fn != nil {
		fn(err)
	}
}

// isCurrent reports whether gen is still the newest issued generation on a
// live resource.
func (r *Resource[T]) isCurrent(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && gen == r.gen
}

// dispatch routes a commit through the bound Ctx, or applies it inline
// when the resource is unbound.
func (r *Resource[T]) dispatch(fn func()) {
	if r.ctx != nil {
		r.ctx.Dispatch(fn)
		return
	}
	fn()
}

func (r *Resource[T]) stdContext() context.Context {
	if r.ctx != nil {
		if std := r.ctx.StdContext(); std != nil {
			return std
		}
	}
	return context.Background()
}

func (r *Resource[T]) checkBudget() error {
	if r.ctx == nil {
		return nil
	}
	budget := r.ctx.Budget()
	if budget == nil {
		return nil
	}
	return budget.CheckFetch()
}

func (r *Resource[T]) successCallback() func(T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onSuccess
}

func (r *Resource[T]) errorCallback() func(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onError
}

func (r *Resource[T]) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
