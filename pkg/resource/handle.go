package resource

import (
	"context"
	"sync"
)

// Handle represents the outcome of one explicit Revalidate or Mutate call.
// It always settles with the true outcome of its own invocation, even when
// the invocation was superseded and its result never committed into the
// resource state.
type Handle[T any] struct {
	done chan struct{}

	mu     sync.Mutex
	result T
	err    error
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// settle records the outcome and releases waiters. Only the first call has
// an effect.
func (h *Handle[T]) settle(result T, err error) {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return
	default:
	}
	h.result = result
	h.err = err
	close(h.done)
	h.mu.Unlock()
}

// Done returns a channel closed when the invocation has settled.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Result returns the settled outcome. It must only be called after Done is
// closed; before that it returns zero values.
func (h *Handle[T]) Result() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Await blocks until the invocation settles or ctx ends.
func (h *Handle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
